package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ManboyFxx/odelivery/internal/domain"
)

func TestNewJob(t *testing.T) {
	customer := "c1"
	order := &domain.Order{
		ID: "o1", OrderNumber: "1001", TenantID: "t1", CustomerID: &customer,
		Total: 33.3, Status: domain.StatusPreparing,
	}

	job := NewJob(order, TemplateOrderConfirmed)

	assert.Equal(t, TemplateOrderConfirmed, job.TemplateKey)
	assert.Equal(t, "o1", job.OrderID)
	assert.Equal(t, "t1", job.TenantID)
	assert.Equal(t, "c1", job.CustomerID)
	assert.Empty(t, job.MotoboyID)
	assert.Equal(t, "preparing", job.Status)
	assert.False(t, job.EnqueuedAt.IsZero())
}
