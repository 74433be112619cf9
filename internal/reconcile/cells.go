package reconcile

// colIndex converts a column letter ("A", "M", "AA") to a zero-based index.
func colIndex(col string) int {
	n := 0
	for _, c := range col {
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		n = n*26 + int(c-'A'+1)
	}
	return n - 1
}

// colName converts a zero-based index back to a column letter.
func colName(idx int) string {
	name := ""
	idx++
	for idx > 0 {
		idx--
		name = string(rune('A'+idx%26)) + name
		idx /= 26
	}
	return name
}
