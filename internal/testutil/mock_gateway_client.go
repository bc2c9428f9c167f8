package testutil

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	ierr "github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/errors"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/integration/gateway"
)

var _ gateway.Client = (*MockGatewayClient)(nil)

// Gateway operation names used in the call log and for failure injection
const (
	OpCreateCustomer     = "CreateCustomer"
	OpCreateSubscription = "CreateSubscription"
	OpGetSubscription    = "GetSubscription"
	OpCancelSubscription = "CancelSubscription"
	OpListPayments       = "ListPayments"
	OpGetPayment         = "GetPayment"
)

// GatewayCall is one recorded call
type GatewayCall struct {
	Op   string
	Args interface{}
}

type injectedFailure struct {
	err   error
	times int // negative means always
}

// MockGatewayClient is a stateful fake of the payment gateway
type MockGatewayClient struct {
	mu            sync.Mutex
	CallLog       []GatewayCall
	customers     map[string]*gateway.Customer
	subscriptions map[string]*gateway.Subscription
	payments      map[string]*gateway.Payment
	failures      map[string]*injectedFailure
	seq           int
}

func NewMockGatewayClient() *MockGatewayClient {
	return &MockGatewayClient{
		customers:     make(map[string]*gateway.Customer),
		subscriptions: make(map[string]*gateway.Subscription),
		payments:      make(map[string]*gateway.Payment),
		failures:      make(map[string]*injectedFailure),
	}
}

// GatewayError builds the error the real client returns for a rejected call
func GatewayError(status int, message string) error {
	gwErr := &gateway.Error{StatusCode: status, Message: message}
	return ierr.WithError(gwErr).WithHint(message).Mark(ierr.ErrGateway)
}

// FailOn makes op fail with err for the next times calls; times < 0 fails
// forever
func (m *MockGatewayClient) FailOn(op string, err error, times int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		err = GatewayError(http.StatusBadGateway, "payment gateway request failed")
	}
	m.failures[op] = &injectedFailure{err: err, times: times}
}

// AddPayment registers a remote payment
func (m *MockGatewayClient) AddPayment(p gateway.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[p.ID] = &p
}

// Calls returns the logged calls of op
func (m *MockGatewayClient) Calls(op string) []GatewayCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []GatewayCall
	for _, c := range m.CallLog {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Subscription returns the remote copy of a subscription
func (m *MockGatewayClient) Subscription(id string) (*gateway.Subscription, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subscriptions[id]
	if !ok {
		return nil, false
	}
	out := *sub
	return &out, true
}

// record must be called with mu held
func (m *MockGatewayClient) record(op string, args interface{}) error {
	m.CallLog = append(m.CallLog, GatewayCall{Op: op, Args: args})
	f, ok := m.failures[op]
	if !ok {
		return nil
	}
	if f.times == 0 {
		delete(m.failures, op)
		return nil
	}
	if f.times > 0 {
		f.times--
		if f.times == 0 {
			delete(m.failures, op)
		}
	}
	return f.err
}

func (m *MockGatewayClient) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s_%06d", prefix, m.seq)
}

func notFound(what, id string) error {
	return GatewayError(http.StatusNotFound, fmt.Sprintf("%s %s not found", what, id))
}

func (m *MockGatewayClient) CreateCustomer(ctx context.Context, req gateway.CreateCustomerRequest) (*gateway.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpCreateCustomer, req); err != nil {
		return nil, err
	}
	c := &gateway.Customer{
		ID:                m.nextID("cus"),
		Name:              req.Name,
		Email:             req.Email,
		CpfCnpj:           req.CpfCnpj,
		ExternalReference: req.ExternalReference,
	}
	m.customers[c.ID] = c
	out := *c
	return &out, nil
}

func (m *MockGatewayClient) CreateSubscription(ctx context.Context, req gateway.CreateSubscriptionRequest) (*gateway.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpCreateSubscription, req); err != nil {
		return nil, err
	}
	if _, ok := m.customers[req.Customer]; !ok {
		return nil, notFound("customer", req.Customer)
	}
	sub := &gateway.Subscription{
		ID:                m.nextID("sub"),
		Customer:          req.Customer,
		BillingType:       req.BillingType,
		NextDueDate:       req.NextDueDate,
		Cycle:             req.Cycle,
		Description:       req.Description,
		Status:            "ACTIVE",
		ExternalReference: req.ExternalReference,
	}
	sub.Value = decimalFromFloat(req.Value)
	m.subscriptions[sub.ID] = sub

	// the gateway issues the first charge right away
	first := &gateway.Payment{
		ID:           m.nextID("pay"),
		Customer:     req.Customer,
		Subscription: sub.ID,
		Value:        sub.Value,
		Status:       gateway.PaymentStatusPending,
		BillingType:  req.BillingType,
		DueDate:      req.NextDueDate,
	}
	m.payments[first.ID] = first

	out := *sub
	return &out, nil
}

func (m *MockGatewayClient) GetSubscription(ctx context.Context, subscriptionID string) (*gateway.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpGetSubscription, subscriptionID); err != nil {
		return nil, err
	}
	sub, ok := m.subscriptions[subscriptionID]
	if !ok {
		return nil, notFound("subscription", subscriptionID)
	}
	out := *sub
	return &out, nil
}

// CancelSubscription is idempotent like the real endpoint
func (m *MockGatewayClient) CancelSubscription(ctx context.Context, subscriptionID string) (*gateway.DeleteResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpCancelSubscription, subscriptionID); err != nil {
		return nil, err
	}
	sub, ok := m.subscriptions[subscriptionID]
	if !ok {
		return nil, notFound("subscription", subscriptionID)
	}
	sub.Deleted = true
	sub.Status = "INACTIVE"
	return &gateway.DeleteResponse{ID: subscriptionID, Deleted: true}, nil
}

func (m *MockGatewayClient) ListPayments(ctx context.Context, params gateway.ListPaymentsParams) (*gateway.PaymentList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpListPayments, params); err != nil {
		return nil, err
	}

	var matched []gateway.Payment
	for _, p := range m.payments {
		if params.Subscription != "" && p.Subscription != params.Subscription {
			continue
		}
		matched = append(matched, *p)
	}
	sortPayments(matched)

	limit := params.Limit
	if limit <= 0 {
		limit = 10
	}
	start := params.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return &gateway.PaymentList{
		HasMore:    end < len(matched),
		TotalCount: len(matched),
		Limit:      limit,
		Offset:     start,
		Data:       matched[start:end],
	}, nil
}

func (m *MockGatewayClient) ListAllPayments(ctx context.Context, subscriptionID string) ([]gateway.Payment, error) {
	var all []gateway.Payment
	offset := 0
	for {
		page, err := m.ListPayments(ctx, gateway.ListPaymentsParams{Subscription: subscriptionID, Offset: offset, Limit: 100})
		if err != nil {
			return nil, err
		}
		all = append(all, page.Data...)
		if !page.HasMore {
			return all, nil
		}
		offset += len(page.Data)
	}
}

func (m *MockGatewayClient) GetPayment(ctx context.Context, paymentID string) (*gateway.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpGetPayment, paymentID); err != nil {
		return nil, err
	}
	p, ok := m.payments[paymentID]
	if !ok {
		return nil, notFound("payment", paymentID)
	}
	out := *p
	return &out, nil
}

// ResetCalls forgets the call log, e.g. after fixtures talked to the fake
func (m *MockGatewayClient) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallLog = nil
}

// SetPaymentStatus changes a remote payment, as the gateway would after a
// customer pays
func (m *MockGatewayClient) SetPaymentStatus(paymentID, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.payments[paymentID]; ok {
		p.Status = status
	}
}

// EditSubscription changes the remote copy, as an edit in the gateway
// dashboard would
func (m *MockGatewayClient) EditSubscription(subscriptionID string, fn func(sub *gateway.Subscription)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub, ok := m.subscriptions[subscriptionID]; ok {
		fn(sub)
	}
}

// PaymentsOf returns the remote payments of a subscription, oldest due first
func (m *MockGatewayClient) PaymentsOf(subscriptionID string) []gateway.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []gateway.Payment
	for _, p := range m.payments {
		if p.Subscription == subscriptionID {
			out = append(out, *p)
		}
	}
	sortPayments(out)
	return out
}
