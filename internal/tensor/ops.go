package tensor

import "fmt"

// MatMul computes the 2D matrix product t @ other.
// Shapes: [m, k] @ [k, n] -> [m, n].
func (t *Tensor) MatMul(other *Tensor) (*Tensor, error) {
	if len(t.shape) != 2 || len(other.shape) != 2 {
		return nil, fmt.Errorf("MatMul requires 2D tensors, got %v and %v", t.shape, other.shape)
	}
	m, k := t.shape[0], t.shape[1]
	k2, n := other.shape[0], other.shape[1]
	if k != k2 {
		return nil, fmt.Errorf("MatMul inner dimensions disagree: %v @ %v", t.shape, other.shape)
	}

	out := New(Shape{m, n})
	for i := 0; i < m; i++ {
		row := t.data[i*k : (i+1)*k]
		outRow := out.data[i*n : (i+1)*n]
		for p := 0; p < k; p++ {
			a := row[p]
			if a == 0 {
				continue
			}
			bRow := other.data[p*n : (p+1)*n]
			for j := 0; j < n; j++ {
				outRow[j] += a * bRow[j]
			}
		}
	}
	return out, nil
}

// Transpose2D returns the transpose of a 2D tensor.
func (t *Tensor) Transpose2D() (*Tensor, error) {
	if len(t.shape) != 2 {
		return nil, fmt.Errorf("Transpose2D requires a 2D tensor, got %v", t.shape)
	}
	rows, cols := t.shape[0], t.shape[1]
	out := New(Shape{cols, rows})
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.data[j*rows+i] = t.data[i*cols+j]
		}
	}
	return out, nil
}

// Scale returns a new tensor with every element multiplied by s.
func (t *Tensor) Scale(s float64) *Tensor {
	out := New(t.shape)
	for i, v := range t.data {
		out.data[i] = v * s
	}
	return out
}

// Index extracts batch element b of a 3D tensor [batch, seq, dim] as a
// 2D tensor [seq, dim]. The result is a copy.
func (t *Tensor) Index(b int) (*Tensor, error) {
	if len(t.shape) != 3 {
		return nil, fmt.Errorf("Index requires a 3D tensor, got %v", t.shape)
	}
	if b < 0 || b >= t.shape[0] {
		return nil, fmt.Errorf("batch index %d out of bounds (size %d)", b, t.shape[0])
	}
	seq, dim := t.shape[1], t.shape[2]
	out := New(Shape{seq, dim})
	copy(out.data, t.data[b*seq*dim:(b+1)*seq*dim])
	return out, nil
}

// Stack2D stacks a batch of equally-shaped 2D tensors [seq, dim] into a
// single 3D tensor [batch, seq, dim].
func Stack2D(mats []*Tensor) (*Tensor, error) {
	if len(mats) == 0 {
		return nil, fmt.Errorf("Stack2D requires at least one tensor")
	}
	base := mats[0].shape
	if len(base) != 2 {
		return nil, fmt.Errorf("Stack2D requires 2D tensors, got %v", base)
	}
	for i, m := range mats[1:] {
		if !m.shape.Equal(base) {
			return nil, fmt.Errorf("Stack2D shape mismatch at index %d: %v vs %v", i+1, m.shape, base)
		}
	}

	out := New(Shape{len(mats), base[0], base[1]})
	step := base.NumElements()
	for i, m := range mats {
		copy(out.data[i*step:(i+1)*step], m.data)
	}
	return out, nil
}

// ConcatSeq concatenates 3D tensors [batch, seq_i, dim] along the sequence
// axis. Batch and feature dimensions must agree.
func ConcatSeq(chunks []*Tensor) (*Tensor, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("ConcatSeq requires at least one tensor")
	}

	batch, dim := 0, 0
	totalSeq := 0
	for i, c := range chunks {
		if len(c.shape) != 3 {
			return nil, fmt.Errorf("ConcatSeq requires 3D tensors, got %v at index %d", c.shape, i)
		}
		if i == 0 {
			batch, dim = c.shape[0], c.shape[2]
		} else if c.shape[0] != batch || c.shape[2] != dim {
			return nil, fmt.Errorf("ConcatSeq batch/dim mismatch at index %d: %v", i, c.shape)
		}
		totalSeq += c.shape[1]
	}

	out := New(Shape{batch, totalSeq, dim})
	for b := 0; b < batch; b++ {
		pos := 0
		for _, c := range chunks {
			seq := c.shape[1]
			src := c.data[b*seq*dim : (b+1)*seq*dim]
			dst := out.data[(b*totalSeq+pos)*dim : (b*totalSeq+pos+seq)*dim]
			copy(dst, src)
			pos += seq
		}
	}
	return out, nil
}

// ChunkSeq splits a 3D tensor [batch, seq, dim] into n chunks along the
// sequence axis. The sequence length must divide evenly by n.
func ChunkSeq(t *Tensor, n int) ([]*Tensor, error) {
	if len(t.shape) != 3 {
		return nil, fmt.Errorf("ChunkSeq requires a 3D tensor, got %v", t.shape)
	}
	if n <= 0 {
		return nil, fmt.Errorf("ChunkSeq requires n > 0, got %d", n)
	}
	batch, seq, dim := t.shape[0], t.shape[1], t.shape[2]
	if seq%n != 0 {
		return nil, fmt.Errorf("sequence length %d not divisible into %d chunks", seq, n)
	}

	chunkSeq := seq / n
	chunks := make([]*Tensor, n)
	for i := range chunks {
		c := New(Shape{batch, chunkSeq, dim})
		for b := 0; b < batch; b++ {
			src := t.data[(b*seq+i*chunkSeq)*dim : (b*seq+(i+1)*chunkSeq)*dim]
			copy(c.data[b*chunkSeq*dim:(b+1)*chunkSeq*dim], src)
		}
		chunks[i] = c
	}
	return chunks, nil
}
