package errx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("outer: %w", New(cause, http.StatusBadGateway, "upstream failed"))

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "upstream failed", PublicMessage(err, "fallback"))
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))
	assert.Equal(t, "upstream failed: boom", New(cause, 0, "upstream failed").Error())
}

func TestPublicMessageFallback(t *testing.T) {
	assert.Equal(t, "fallback", PublicMessage(errors.New("plain"), "fallback"))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("plain")))
}

func TestWrapRedis(t *testing.T) {
	assert.NoError(t, WrapRedis(nil))
	assert.Equal(t, http.StatusNotFound, StatusOf(WrapRedis(redis.Nil)))
	assert.Equal(t, http.StatusBadGateway, StatusOf(WrapRedis(errors.New("conn refused"))))
}
