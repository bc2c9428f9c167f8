package types

type PubSubType string

const (
	MemoryPubSub PubSubType = "memory"
)
