package domain

// Zero overwrites b with zeros.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ZeroAll overwrites every slice with zeros.
func ZeroAll(values ...[]byte) {
	for _, b := range values {
		Zero(b)
	}
}
