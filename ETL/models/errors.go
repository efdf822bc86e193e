package models

import (
	"fmt"
	"strings"
)

// FileNotFoundError is returned when an input file does not exist or cannot be opened.
type FileNotFoundError struct {
	Path string
	Err  error
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("input file not found: %s: %v", e.Path, e.Err)
}

func (e *FileNotFoundError) Unwrap() error { return e.Err }

// ParseError reports a structurally malformed input document.
type ParseError struct {
	Source string // file the error came from
	Line   int    // 1-based, zero when unknown
	Path   string // element path such as orders/order/items
	Msg    string
	Err    error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse error")
	if e.Source != "" {
		fmt.Fprintf(&b, " in %s", e.Source)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d", e.Line)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " (%s)", e.Path)
	}
	fmt.Fprintf(&b, ": %s", e.Msg)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError reports a missing or invalid required field of one record.
type ValidationError struct {
	Source string
	Record string // e.g. "line 7" or "order O-12"
	Field  string
	Msg    string
	Err    error
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("validation error")
	if e.Source != "" {
		fmt.Fprintf(&b, " in %s", e.Source)
	}
	if e.Record != "" {
		fmt.Fprintf(&b, " at %s", e.Record)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " field %q", e.Field)
	}
	fmt.Fprintf(&b, ": %s", e.Msg)
	return b.String()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ConnectionError means the persistent backend is misconfigured or unreachable.
type ConnectionError struct {
	Driver string
	Target string
	Msg    string
	Err    error
}

func (e *ConnectionError) Error() string {
	msg := fmt.Sprintf("connection error (%s %s): %s", e.Driver, e.Target, e.Msg)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// OrphanReferenceWarning records an order whose customer id matches no known customer.
// It is not an error: the order is kept out of per-customer reports and the run continues.
type OrphanReferenceWarning struct {
	OrderID    string `json:"order_id"`
	CustomerID string `json:"customer_id"`
}

func (w OrphanReferenceWarning) String() string {
	if w.CustomerID == "" {
		return fmt.Sprintf("order %s has no customer id", w.OrderID)
	}
	return fmt.Sprintf("order %s references unknown customer %s", w.OrderID, w.CustomerID)
}
