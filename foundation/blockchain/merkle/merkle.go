// Package merkle provides a merkle tree over the transactions of a block so
// the inclusion of a single transaction can be proven without the others.
package merkle

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Order values for a proof step.
const (
	OrderLeft  = 0 // Proof hash is concatenated first.
	OrderRight = 1 // Proof hash is concatenated second.
)

// ErrNoLeaves is returned when constructing a tree with no content.
var ErrNoLeaves = errors.New("cannot construct tree with no content")

// Tree represents a merkle tree built bottom up from a set of leaf hashes.
// Leaves are addressed by position since the same value can appear twice.
type Tree struct {
	levels [][][]byte
}

// NewTree constructs a tree from the specified leaf hashes. A level with an
// odd number of nodes pairs its last node with itself.
func NewTree(leaves [][]byte) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrNoLeaves
	}

	level := make([][]byte, len(leaves))
	copy(level, leaves)

	t := Tree{
		levels: [][][]byte{level},
	}

	for len(level) > 1 {
		var next [][]byte
		for i := 0; i < len(level); i += 2 {
			right := i + 1
			if right == len(level) {
				right = i
			}
			next = append(next, hashPair(level[i], level[right]))
		}

		t.levels = append(t.levels, next)
		level = next
	}

	return &t, nil
}

// Root returns the root hash of the tree.
func (t *Tree) Root() []byte {
	return t.levels[len(t.levels)-1][0]
}

// RootHex converts the merkle root byte hash to a hex encoded string.
func (t *Tree) RootHex() string {
	return hexutil.Encode(t.Root())
}

// Leaves returns the number of leaves the tree was constructed with.
func (t *Tree) Leaves() int {
	return len(t.levels[0])
}

// Proof is the set of sibling hashes and the order of concatenating them
// needed to recompute the root from a single leaf.
//
// Hash the leaf, then for each step concatenate the proof hash first when
// the order is 0 or second when the order is 1 and hash the result. The
// final hash must match the root.
type Proof struct {
	Index  int      `json:"index"`
	Leaf   string   `json:"leaf"`
	Hashes []string `json:"hashes"`
	Order  []int    `json:"order"`
}

// Proof returns the inclusion proof for the leaf at the specified index.
func (t *Tree) Proof(index int) (Proof, error) {
	if index < 0 || index >= t.Leaves() {
		return Proof{}, fmt.Errorf("leaf %d outside tree of %d leaves", index, t.Leaves())
	}

	proof := Proof{
		Index:  index,
		Leaf:   hexutil.Encode(t.levels[0][index]),
		Hashes: []string{},
		Order:  []int{},
	}

	pos := index
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling, order := pos+1, OrderRight
		if pos%2 == 1 {
			sibling, order = pos-1, OrderLeft
		}
		if sibling == len(level) {
			sibling = pos
		}

		proof.Hashes = append(proof.Hashes, hexutil.Encode(level[sibling]))
		proof.Order = append(proof.Order, order)
		pos /= 2
	}

	return proof, nil
}

// VerifyProof recomputes the root from the proof and checks it against the
// specified hex encoded root.
func VerifyProof(root string, proof Proof) error {
	if len(proof.Hashes) != len(proof.Order) {
		return errors.New("proof hashes and order don't line up")
	}

	want, err := hexutil.Decode(root)
	if err != nil {
		return fmt.Errorf("decoding root: %w", err)
	}

	sum, err := hexutil.Decode(proof.Leaf)
	if err != nil {
		return fmt.Errorf("decoding leaf: %w", err)
	}

	for i, h := range proof.Hashes {
		sibling, err := hexutil.Decode(h)
		if err != nil {
			return fmt.Errorf("decoding proof hash %d: %w", i, err)
		}

		switch proof.Order[i] {
		case OrderLeft:
			sum = hashPair(sibling, sum)
		case OrderRight:
			sum = hashPair(sum, sibling)
		default:
			return fmt.Errorf("invalid order %d at step %d", proof.Order[i], i)
		}
	}

	if !bytes.Equal(sum, want) {
		return errors.New("merkle root is not equivalent to the merkle root calculated on the critical path")
	}

	return nil
}

func hashPair(left []byte, right []byte) []byte {
	h := sha256.New()
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}
