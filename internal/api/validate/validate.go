package validate

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"strings"
)

type ErrField struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

func (e *ErrField) Error() string { return e.Field + ": " + e.Msg }

type Errs []ErrField

func (e Errs) Error() string {
	var b strings.Builder
	for i, ef := range e {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(ef.Field + ": " + ef.Msg)
	}
	return b.String()
}

// Int64 parses a path or query value as a base-10 int64.
func Int64(field, raw string) (int64, *ErrField) {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, &ErrField{Field: field, Msg: "must be an integer"}
	}
	return v, nil
}

const maxAmountBody = 1 << 10

// Amount reads a request body holding either a bare JSON integer (`500`) or
// an object (`{"amount": 500}`). Range checks belong to the ledger.
func Amount(body io.Reader) (int64, *ErrField) {
	raw, err := io.ReadAll(io.LimitReader(body, maxAmountBody))
	if err != nil {
		return 0, &ErrField{Field: "amount", Msg: "unreadable body"}
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, &ErrField{Field: "amount", Msg: "required"}
	}

	if raw[0] == '{' {
		var req struct {
			Amount *json.Number `json:"amount"`
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&req); err != nil || req.Amount == nil {
			return 0, &ErrField{Field: "amount", Msg: "required"}
		}
		return number(*req.Amount)
	}

	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return 0, &ErrField{Field: "amount", Msg: "must be an integer"}
	}
	return number(n)
}

func number(n json.Number) (int64, *ErrField) {
	v, err := n.Int64()
	if err != nil {
		return 0, &ErrField{Field: "amount", Msg: "must be an integer"}
	}
	return v, nil
}
