package mq

import (
	"errors"
	"fmt"
	"sort"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
)

func TestTableCarrier(t *testing.T) {
	c := tableCarrier{table: amqp.Table{}}
	c.Set("traceparent", "00-abc-def-01")
	c.table["retries"] = 3

	assert.Equal(t, "00-abc-def-01", c.Get("traceparent"))
	assert.Equal(t, "3", c.Get("retries"))
	assert.Equal(t, "", c.Get("missing"))

	keys := c.Keys()
	sort.Strings(keys)
	assert.Equal(t, []string{"retries", "traceparent"}, keys)
}

func TestPermanent(t *testing.T) {
	base := errors.New("bad payload")

	assert.False(t, IsPermanent(base))
	assert.True(t, IsPermanent(Permanent(base)))
	assert.True(t, IsPermanent(fmt.Errorf("decode: %w", Permanent(base))))
	assert.ErrorIs(t, Permanent(base), base)
}

func TestShouldRequeue(t *testing.T) {
	transient := errors.New("gateway 503")

	tests := []struct {
		name        string
		err         error
		redelivered bool
		want        bool
	}{
		{name: "first transient failure", err: transient, want: true},
		{name: "second transient failure", err: transient, redelivered: true, want: false},
		{name: "permanent on first delivery", err: Permanent(transient), want: false},
		{name: "permanent on redelivery", err: Permanent(transient), redelivered: true, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldRequeue(tt.err, tt.redelivered))
		})
	}
}
