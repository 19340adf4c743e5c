package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/noah-isme/backend-pos/internal/common"
)

// DisplayErrorLimit caps the error list shown to users.
const DisplayErrorLimit = 20

// Sink receives validated rows. Implementations persist one record per call.
type Sink interface {
	CreateCategory(ctx context.Context, in NewCategory) error
	CreateItem(ctx context.Context, in NewItem) error
}

// Progress is called after every row with the number processed so far.
type Progress func(current, total int)

// Result accumulates the outcome of a run. Errors holds every message in row
// order; use DisplayErrors for the capped list.
type Result struct {
	Total   int      `json:"total"`
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
}

// DisplayErrors returns at most DisplayErrorLimit messages.
func (r Result) DisplayErrors() []string {
	return r.FirstErrors(DisplayErrorLimit)
}

// FirstErrors returns at most n messages. n <= 0 means DisplayErrorLimit.
func (r Result) FirstErrors(n int) []string {
	if n <= 0 {
		n = DisplayErrorLimit
	}
	if len(r.Errors) <= n {
		return r.Errors
	}
	return r.Errors[:n]
}

func (r *Result) fail(err error) {
	r.Failed++
	r.Errors = append(r.Errors, err.Error())
}

// Run imports rows one at a time in file order. A failing row is recorded and
// skipped; rows inserted earlier stay committed. Item rows naming a category
// resolve against snapshot, which is not refreshed during the run. Run returns a
// non-nil error only when ctx ends, together with the counts reached so far.
func Run(ctx context.Context, kind Kind, rows []Row, snapshot []CategoryRef, sink Sink, progress Progress) (Result, error) {
	res := Result{Total: len(rows), Errors: []string{}}
	if sink == nil {
		return res, errors.New("importer: sink is required")
	}
	if kind != KindCategories && kind != KindItems {
		return res, fmt.Errorf("importer: unknown import kind %q", kind)
	}
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		switch kind {
		case KindCategories:
			runCategoryRow(ctx, &res, sink, row, i)
		case KindItems:
			runItemRow(ctx, &res, sink, row, i, snapshot)
		}
		if progress != nil {
			progress(i+1, len(rows))
		}
	}
	return res, nil
}

func runCategoryRow(ctx context.Context, res *Result, sink Sink, row Row, i int) {
	if err := ValidateCategoryRow(row, i); err != nil {
		res.fail(err)
		return
	}
	if err := sink.CreateCategory(ctx, CategoryFromRow(row)); err != nil {
		res.fail(insertErr(i, err))
		return
	}
	res.Success++
}

func runItemRow(ctx context.Context, res *Result, sink Sink, row Row, i int, snapshot []CategoryRef) {
	if err := ValidateItemRow(row, i); err != nil {
		res.fail(err)
		return
	}
	categoryID := row.Get("category_id")
	if categoryID == "" {
		if name := row.Get("category_name"); name != "" {
			id, ok := ResolveCategoryID(name, row.Get("subcategory"), snapshot)
			if !ok {
				res.fail(rowErr(i, "Category \"%s\" not found", name))
				return
			}
			categoryID = id
		}
	}
	item, err := ItemFromRow(row, i, categoryID)
	if err != nil {
		res.fail(err)
		return
	}
	if err := sink.CreateItem(ctx, item); err != nil {
		res.fail(insertErr(i, err))
		return
	}
	res.Success++
}

func insertErr(i int, err error) *RowError {
	msg := err.Error()
	var appErr *common.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		msg = appErr.Message
	}
	if strings.TrimSpace(msg) == "" {
		msg = "Failed to import"
	}
	return rowErr(i, "%s", msg)
}
