package rdb

type EdgeMap map[ChanId]*Edge
type NodeMap map[PubKey]*Node

type Graph struct {
	Edges EdgeMap
	Nodes NodeMap
}
