package types

type FinanceRecordType string

const (
	FinanceRecordTypeIncome  FinanceRecordType = "income"
	FinanceRecordTypeExpense FinanceRecordType = "expense"
)

const FinanceCategorySubscription = "subscription"
