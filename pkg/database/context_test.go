package database

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestGetUserScope(t *testing.T) {
	_, ok := GetUserScope(context.Background())
	assert.False(t, ok)

	ctx := SetUserScope(context.Background(), (*UserScope)(nil))
	_, ok = GetUserScope(ctx)
	assert.False(t, ok, "nil scope is treated as absent")

	userID := uuid.New()
	ctx = SetUserScope(context.Background(), &UserScope{UserID: userID})
	scope, ok := GetUserScope(ctx)
	assert.True(t, ok)
	assert.Equal(t, userID, scope.UserID)
}

func TestUserScope_CloseWithoutConn(t *testing.T) {
	scope := &UserScope{}
	scope.Close()
	assert.Nil(t, scope.Conn)
}
