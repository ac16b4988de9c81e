package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokerList_Lexflow(t *testing.T) {
	t.Setenv("LEXFLOW_KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("KAFKA_BROKERS", "")

	brokers, err := brokerList()
	require.NoError(t, err)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, brokers)
}

func TestBrokerList_Fallback(t *testing.T) {
	t.Setenv("LEXFLOW_KAFKA_BROKERS", "")
	t.Setenv("KAFKA_BROKERS", "shared:9092")

	brokers, err := brokerList()
	require.NoError(t, err)
	assert.Equal(t, []string{"shared:9092"}, brokers)
}

func TestBrokerList_Unset(t *testing.T) {
	t.Setenv("LEXFLOW_KAFKA_BROKERS", "")
	t.Setenv("KAFKA_BROKERS", "")

	_, err := brokerList()
	assert.ErrorIs(t, err, errNoBrokers)
}
