package host

// rowCopier moves rows between a dense host array and a device buffer
// whose rows start every pitch elements. A flat copier has a single row.
type rowCopier[T any] struct {
	rows   int
	rowLen int
	pitch  int
}

func flatCopier[T any](n int) rowCopier[T] {
	return rowCopier[T]{rows: 1, rowLen: n, pitch: n}
}

func pitchedCopier[T any](rows, rowLen, pitch int) rowCopier[T] {
	return rowCopier[T]{rows: rows, rowLen: rowLen, pitch: pitch}
}

func (c rowCopier[T]) toDevice(dev, host []T) {
	for r := 0; r < c.rows; r++ {
		copy(dev[r*c.pitch:r*c.pitch+c.rowLen], host[r*c.rowLen:(r+1)*c.rowLen])
	}
}

func (c rowCopier[T]) toHost(host, dev []T) {
	for r := 0; r < c.rows; r++ {
		copy(host[r*c.rowLen:(r+1)*c.rowLen], dev[r*c.pitch:r*c.pitch+c.rowLen])
	}
}
