package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewProducerRequiresBrokers(t *testing.T) {
	p, err := NewProducer(Config{Topic: "compliance.notifications"})
	assert.Error(t, err)
	assert.Nil(t, p)
}
