package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/aiseed/api/schemas"
)

func TestMockLLMClient_CancelledContextSkipsExpectations(t *testing.T) {
	m := new(MockLLMClient)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Generate(ctx, schemas.GenerationRequest{UserPrompt: "hi"})
	assert.ErrorIs(t, err, context.Canceled)
	m.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestMockLLMClient_ReturnsConfiguredValues(t *testing.T) {
	m := new(MockLLMClient)
	m.On("Generate", mock.Anything, mock.Anything).Return("ok", nil).Once()
	m.On("Close").Return(nil)

	out, err := m.Generate(context.Background(), schemas.GenerationRequest{})
	assert.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.NoError(t, m.Close())
	m.AssertExpectations(t)
}
