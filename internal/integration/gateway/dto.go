package gateway

import (
	"github.com/shopspring/decimal"
)

// Gateway vocabulary for billing cycles
const (
	CycleMonthly   = "MONTHLY"
	CycleQuarterly = "QUARTERLY"
	CycleYearly    = "YEARLY"
)

// Gateway vocabulary for billing types
const (
	BillingTypeBoleto     = "BOLETO"
	BillingTypePix        = "PIX"
	BillingTypeCreditCard = "CREDIT_CARD"
	BillingTypeUndefined  = "UNDEFINED"
)

// Gateway payment statuses
const (
	PaymentStatusPending        = "PENDING"
	PaymentStatusReceived       = "RECEIVED"
	PaymentStatusConfirmed      = "CONFIRMED"
	PaymentStatusReceivedInCash = "RECEIVED_IN_CASH"
	PaymentStatusOverdue        = "OVERDUE"
	PaymentStatusRefunded       = "REFUNDED"
)

// CreateCustomerRequest creates a payer on the gateway
type CreateCustomerRequest struct {
	Name              string `json:"name"`
	CpfCnpj           string `json:"cpfCnpj"`
	Email             string `json:"email,omitempty"`
	MobilePhone       string `json:"mobilePhone,omitempty"`
	ExternalReference string `json:"externalReference,omitempty"`
}

type Customer struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	CpfCnpj           string `json:"cpfCnpj"`
	ExternalReference string `json:"externalReference"`
	Deleted           bool   `json:"deleted"`
}

// CreditCard is only sent for card subscriptions
type CreditCard struct {
	HolderName  string `json:"holderName"`
	Number      string `json:"number"`
	ExpiryMonth string `json:"expiryMonth"`
	ExpiryYear  string `json:"expiryYear"`
	CCV         string `json:"ccv"`
}

type CreditCardHolderInfo struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	CpfCnpj       string `json:"cpfCnpj"`
	PostalCode    string `json:"postalCode"`
	AddressNumber string `json:"addressNumber"`
	Phone         string `json:"phone,omitempty"`
}

// CreateSubscriptionRequest creates a recurring charge schedule
type CreateSubscriptionRequest struct {
	Customer             string                `json:"customer"`
	BillingType          string                `json:"billingType"`
	Value                float64               `json:"value"`
	NextDueDate          string                `json:"nextDueDate"`
	Cycle                string                `json:"cycle"`
	Description          string                `json:"description,omitempty"`
	ExternalReference    string                `json:"externalReference,omitempty"`
	CreditCard           *CreditCard           `json:"creditCard,omitempty"`
	CreditCardHolderInfo *CreditCardHolderInfo `json:"creditCardHolderInfo,omitempty"`
	RemoteIP             string                `json:"remoteIp,omitempty"`
}

type Subscription struct {
	ID                string          `json:"id"`
	Customer          string          `json:"customer"`
	BillingType       string          `json:"billingType"`
	Value             decimal.Decimal `json:"value"`
	NextDueDate       string          `json:"nextDueDate"`
	Cycle             string          `json:"cycle"`
	Description       string          `json:"description"`
	Status            string          `json:"status"`
	ExternalReference string          `json:"externalReference"`
	Deleted           bool            `json:"deleted"`
}

// DeleteResponse is returned when a resource is removed
type DeleteResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

type Payment struct {
	ID                string          `json:"id"`
	Customer          string          `json:"customer"`
	Subscription      string          `json:"subscription"`
	Value             decimal.Decimal `json:"value"`
	NetValue          decimal.Decimal `json:"netValue"`
	Status            string          `json:"status"`
	BillingType       string          `json:"billingType"`
	DueDate           string          `json:"dueDate"`
	PaymentDate       string          `json:"paymentDate,omitempty"`
	ConfirmedDate     string          `json:"confirmedDate,omitempty"`
	ClientPaymentDate string          `json:"clientPaymentDate,omitempty"`
	InvoiceURL        string          `json:"invoiceUrl,omitempty"`
	InvoiceNumber     string          `json:"invoiceNumber,omitempty"`
	Description       string          `json:"description,omitempty"`
	ExternalReference string          `json:"externalReference,omitempty"`
	Deleted           bool            `json:"deleted"`
}

// ListPaymentsParams filters the payment listing; offset/limit paginate
type ListPaymentsParams struct {
	Subscription string
	Customer     string
	Status       string
	Offset       int
	Limit        int
}

type PaymentList struct {
	HasMore    bool      `json:"hasMore"`
	TotalCount int       `json:"totalCount"`
	Limit      int       `json:"limit"`
	Offset     int       `json:"offset"`
	Data       []Payment `json:"data"`
}

// errorResponse is the gateway's error body
type errorResponse struct {
	Errors []struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"errors"`
	Message string `json:"message"`
}
