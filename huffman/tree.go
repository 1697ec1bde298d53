package huffman

import (
	"cmp"
	"container/heap"
	"fmt"
)

const noChild = -1

// node lives in a Tree arena. Leaves have both children set to noChild.
type node[S cmp.Ordered] struct {
	freq   uint64
	symbol S
	left   int32
	right  int32
}

func (n node[S]) leaf() bool {
	return n.left == noChild && n.right == noChild
}

// Tree is a Huffman tree stored as an arena of nodes. Leaves occupy the first
// indices in frequency-table order and internal nodes follow in creation order.
type Tree[S cmp.Ordered] struct {
	nodes []node[S]
	root  int32
}

// Len returns the number of nodes in the tree.
func (t *Tree[S]) Len() int {
	if t == nil {
		return 0
	}
	return len(t.nodes)
}

// Weight returns the frequency at the root, the total symbol count.
func (t *Tree[S]) Weight() uint64 {
	if t == nil || len(t.nodes) == 0 {
		return 0
	}
	return t.nodes[t.root].freq
}

// nodeQueue is a min-heap of arena indices ordered by frequency, then index.
// The index order is the tie-break: among equal frequencies the node that
// entered the arena first is merged first.
type nodeQueue[S cmp.Ordered] struct {
	nodes *[]node[S]
	items []int32
}

func (q *nodeQueue[S]) Len() int { return len(q.items) }

func (q *nodeQueue[S]) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	fa, fb := (*q.nodes)[a].freq, (*q.nodes)[b].freq
	if fa != fb {
		return fa < fb
	}
	return a < b
}

func (q *nodeQueue[S]) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *nodeQueue[S]) Push(x any) { q.items = append(q.items, x.(int32)) }

func (q *nodeQueue[S]) Pop() any {
	old := q.items
	n := len(old)
	x := old[n-1]
	q.items = old[:n-1]
	return x
}

// Build constructs a Huffman tree over freqs and derives its code table.
//
// The two lowest-frequency nodes are merged repeatedly; the first one extracted
// becomes the left child (bit 0). A single distinct symbol gets the code "0".
// An empty frequency table yields a nil tree and an empty code table.
func Build[S cmp.Ordered](freqs Frequencies[S]) (*Tree[S], CodeTable[S], error) {
	if len(freqs) == 0 {
		return nil, CodeTable[S]{}, nil
	}

	seen := make(map[S]struct{}, len(freqs))
	nodes := make([]node[S], 0, 2*len(freqs)-1)
	for _, f := range freqs {
		if f.Count == 0 {
			return nil, CodeTable[S]{}, fmt.Errorf("%w: symbol %v has zero count", ErrInvalidFrequency, f.Symbol)
		}
		if _, dup := seen[f.Symbol]; dup {
			return nil, CodeTable[S]{}, fmt.Errorf("%w: symbol %v listed twice", ErrInvalidFrequency, f.Symbol)
		}
		seen[f.Symbol] = struct{}{}
		nodes = append(nodes, node[S]{freq: f.Count, symbol: f.Symbol, left: noChild, right: noChild})
	}

	q := &nodeQueue[S]{nodes: &nodes, items: make([]int32, len(nodes))}
	for i := range q.items {
		q.items[i] = int32(i)
	}
	heap.Init(q)

	for q.Len() > 1 {
		left := heap.Pop(q).(int32)
		right := heap.Pop(q).(int32)
		nodes = append(nodes, node[S]{
			freq:  nodes[left].freq + nodes[right].freq,
			left:  left,
			right: right,
		})
		heap.Push(q, int32(len(nodes)-1))
	}

	tree := &Tree[S]{nodes: nodes, root: heap.Pop(q).(int32)}
	codes, err := tree.codes()
	if err != nil {
		return nil, CodeTable[S]{}, err
	}
	table, err := NewCodeTable(codes)
	if err != nil {
		return nil, CodeTable[S]{}, err
	}
	return tree, table, nil
}

// codes walks the tree depth first, appending 0 on left edges and 1 on right edges.
func (t *Tree[S]) codes() (map[S]Code, error) {
	codes := make(map[S]Code, (len(t.nodes)+1)/2)
	if t.nodes[t.root].leaf() {
		codes[t.nodes[t.root].symbol] = Code{Bits: 0, Len: 1}
		return codes, nil
	}

	type frame struct {
		idx  int32
		code Code
	}
	stack := []frame{{idx: t.root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := t.nodes[f.idx]
		if n.leaf() {
			codes[n.symbol] = f.code
			continue
		}
		if f.code.Len == MaxCodeLen {
			return nil, ErrCodeTooLong
		}
		stack = append(stack,
			frame{idx: n.right, code: f.code.extend(true)},
			frame{idx: n.left, code: f.code.extend(false)},
		)
	}
	return codes, nil
}
