package pfv

import "sort"

// huffmanNode is a node in the construction-time Huffman tree. Leaves carry
// a valid symbol in [0,15]; internal nodes carry Left/Right children.
type huffmanNode struct {
	Freq  int
	Valid bool
	Sym   byte
	Left  *huffmanNode
	Right *huffmanNode
}

// HuffmanCode is a symbol's code: the low Len bits of Bits, bit 0 being the
// first bit emitted/read (each tree descent ORs the new bit at position
// Len then increments Len).
type HuffmanCode struct {
	Bits uint16
	Len  int
}

const fastTableBits = 8

type fastEntry struct {
	Sym   byte
	Len   int
	Valid bool
}

// HuffmanTree is a tree built from a 16-bucket frequency table, exposing a
// code per symbol, a fast 8-bit lookup table, and slow tree-walk fallback
// for codes longer than 8 bits.
type HuffmanTree struct {
	root  *huffmanNode
	codes [16]HuffmanCode
	fast  [1 << fastTableBits]fastEntry
}

// BuildHuffmanTree constructs a canonical-ish Huffman tree over the 16
// symbols {0..15} from their (possibly normalized) frequencies. Every
// symbol with nonzero frequency ends up with a code of length >= 1.
func BuildHuffmanTree(freq [16]byte) *HuffmanTree {
	var leaves []*huffmanNode
	for sym, f := range freq {
		if f == 0 {
			continue
		}
		leaves = append(leaves, &huffmanNode{Freq: int(f), Valid: true, Sym: byte(sym)})
	}

	if len(leaves) == 0 {
		return &HuffmanTree{}
	}

	if len(leaves) == 1 {
		// A lone symbol still needs a code, so pair it with an unused
		// placeholder leaf to force a two-leaf tree of depth 1.
		leaves = append(leaves, &huffmanNode{Freq: 0, Valid: false})
	}

	sort.Slice(leaves, func(i, j int) bool { return leaves[i].Freq > leaves[j].Freq })

	nodes := leaves
	for len(nodes) > 1 {
		n := len(nodes)
		a, b := nodes[n-1], nodes[n-2]
		nodes = nodes[:n-2]

		parent := &huffmanNode{Freq: a.Freq + b.Freq, Left: a, Right: b}

		// Insertion-sort the merged node back into descending-frequency
		// order.
		pos := sort.Search(len(nodes), func(i int) bool { return nodes[i].Freq <= parent.Freq })
		nodes = append(nodes, nil)
		copy(nodes[pos+1:], nodes[pos:])
		nodes[pos] = parent
	}

	t := &HuffmanTree{root: nodes[0]}
	t.assignCodes(t.root, HuffmanCode{})
	t.buildFastTable()
	return t
}

func (t *HuffmanTree) assignCodes(n *huffmanNode, code HuffmanCode) {
	if n == nil {
		return
	}
	if n.Left == nil && n.Right == nil {
		if n.Valid {
			t.codes[n.Sym] = code
		}
		return
	}

	left := HuffmanCode{Bits: code.Bits, Len: code.Len + 1}
	right := HuffmanCode{Bits: code.Bits | (1 << code.Len), Len: code.Len + 1}
	t.assignCodes(n.Left, left)
	t.assignCodes(n.Right, right)
}

func (t *HuffmanTree) buildFastTable() {
	for v := 0; v < (1 << fastTableBits); v++ {
		if sym, length, ok := t.matchCode(v, fastTableBits); ok {
			t.fast[v] = fastEntry{Sym: sym, Len: length, Valid: true}
		}
	}
}

// matchCode finds the first symbol (by ascending symbol value) whose code
// has length <= maxLen and matches v in its low Len bits. Iteration order
// is fixed so the same v always resolves to the same code.
func (t *HuffmanTree) matchCode(v, maxLen int) (sym byte, length int, ok bool) {
	for s := 0; s < 16; s++ {
		c := t.codes[s]
		if c.Len == 0 || c.Len > maxLen {
			continue
		}
		mask := uint16(1<<c.Len) - 1
		if uint16(v)&mask == c.Bits {
			return byte(s), c.Len, true
		}
	}
	return 0, 0, false
}

// Code returns the code assigned to symbol sym (Len==0 if sym had zero
// frequency and was never assigned one).
func (t *HuffmanTree) Code(sym byte) HuffmanCode {
	return t.codes[sym]
}

// Encode writes sym's code to w.
func (t *HuffmanTree) Encode(w *BitWriter, sym byte) {
	c := t.codes[sym]
	w.Write(int(c.Bits), c.Len)
}

// Decode reads one symbol from r: an 8-bit lookahead against the fast
// table, falling back to a bit-at-a-time tree walk for codes longer than 8
// bits. Returns ErrDecode if the tree is empty or the stream runs out
// mid-code.
func (t *HuffmanTree) Decode(r *BitReader) (byte, error) {
	if t.root == nil {
		return 0, ErrDecode
	}

	lookahead := fastTableBits
	if r.Remaining() < lookahead {
		lookahead = r.Remaining()
	}

	if lookahead > 0 {
		v, _ := r.Read(lookahead)

		if lookahead == fastTableBits {
			entry := t.fast[v]
			if entry.Valid {
				r.Unread(fastTableBits - entry.Len)
				return entry.Sym, nil
			}
		} else if sym, length, ok := t.matchCode(v, lookahead); ok {
			r.Unread(lookahead - length)
			return sym, nil
		}

		r.Unread(lookahead)
	}

	n := t.root
	for {
		if n.Left == nil && n.Right == nil {
			if !n.Valid {
				return 0, ErrDecode
			}
			return n.Sym, nil
		}
		if r.Remaining() < 1 {
			return 0, ErrDecode
		}
		if r.Read1() == 0 {
			n = n.Left
		} else {
			n = n.Right
		}
		if n == nil {
			return 0, ErrDecode
		}
	}
}
