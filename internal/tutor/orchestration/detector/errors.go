package detector

import "fmt"

type errPanic struct{ v any }

func (e errPanic) Error() string { return fmt.Sprintf("intent detector panic: %v", e.v) }
