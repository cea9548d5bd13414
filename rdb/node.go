package rdb

type PubKey string
type BlockHeight uint32

type Node struct {
	PubKey PubKey
	Alias  string
}
