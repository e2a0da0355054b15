package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"ecofinds/internal/gateway"

	postgrest "github.com/supabase-community/postgrest-go"
)

func applyFilters(f *postgrest.FilterBuilder, filters []gateway.Filter) (*postgrest.FilterBuilder, error) {
	for _, flt := range filters {
		if err := flt.Validate(); err != nil {
			return nil, err
		}
		f = f.Filter(flt.Column, flt.Op, fmt.Sprint(flt.Value))
	}
	return f, nil
}

// Select reads rows. Single-row mode asks for one JSON object and reports
// zero or several rows as CodeNoRows.
func (c *Client) Select(ctx context.Context, q *gateway.Query, dest any) error {
	if err := q.Validate(); err != nil {
		return err
	}
	ctx, cancel, t := c.call(ctx)
	defer cancel()

	f, err := applyFilters(
		c.tablesAs(t, gateway.AccessToken(ctx)).From(q.Table).Select(q.SelectClause(), "", false),
		q.Filters,
	)
	if err != nil {
		return err
	}
	if q.Sort != nil {
		f = f.Order(q.Sort.Column, &postgrest.OrderOpts{Ascending: q.Sort.Ascending})
	}
	if q.Max > 0 {
		f = f.Limit(q.Max, "")
	}
	if q.One {
		f = f.Single()
	}
	_, err = f.ExecuteTo(dest)
	return translate(ctx, t, err)
}

// Insert posts rows and decodes the stored rows into dest when dest is not
// nil.
func (c *Client) Insert(ctx context.Context, table string, rows any, dest any) error {
	if !gateway.ValidIdent(table) {
		return gateway.Errorf(gateway.CodeInvalidRequest, "invalid table name %q", table)
	}
	payload, err := insertPayload(rows)
	if err != nil {
		return err
	}
	ctx, cancel, t := c.call(ctx)
	defer cancel()

	returning := "minimal"
	if dest != nil {
		returning = "representation"
	}
	f := c.tablesAs(t, gateway.AccessToken(ctx)).From(table).Insert(payload, false, "", returning, "")
	if dest == nil {
		_, _, err = f.Execute()
	} else {
		_, err = f.ExecuteTo(dest)
	}
	return translate(ctx, t, err)
}

// Update patches every row matching filters.
func (c *Client) Update(ctx context.Context, table string, values map[string]any, filters ...gateway.Filter) error {
	if !gateway.ValidIdent(table) {
		return gateway.Errorf(gateway.CodeInvalidRequest, "invalid table name %q", table)
	}
	ctx, cancel, t := c.call(ctx)
	defer cancel()

	f, err := applyFilters(
		c.tablesAs(t, gateway.AccessToken(ctx)).From(table).Update(values, "minimal", ""),
		filters,
	)
	if err != nil {
		return err
	}
	_, _, err = f.Execute()
	return translate(ctx, t, err)
}

// Delete removes every row matching filters.
func (c *Client) Delete(ctx context.Context, table string, filters ...gateway.Filter) error {
	if !gateway.ValidIdent(table) {
		return gateway.Errorf(gateway.CodeInvalidRequest, "invalid table name %q", table)
	}
	ctx, cancel, t := c.call(ctx)
	defer cancel()

	f, err := applyFilters(
		c.tablesAs(t, gateway.AccessToken(ctx)).From(table).Delete("minimal", ""),
		filters,
	)
	if err != nil {
		return err
	}
	_, _, err = f.Execute()
	return translate(ctx, t, err)
}

// insertPayload turns model rows into JSON objects without the columns the
// server fills in: empty ids and zero timestamps.
func insertPayload(rows any) ([]map[string]any, error) {
	raw, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rows: %w", err)
	}
	var objects []map[string]any
	if err := json.Unmarshal(raw, &objects); err != nil {
		return nil, gateway.Errorf(gateway.CodeInvalidRequest, "insert expects a slice of rows, got %T", rows)
	}
	zero, _ := time.Time{}.MarshalJSON()
	zeroTime, _ := strconv.Unquote(string(zero))
	for _, obj := range objects {
		if id, ok := obj["id"].(string); ok && id == "" {
			delete(obj, "id")
		}
		if ts, ok := obj["created_at"].(string); ok && ts == zeroTime {
			delete(obj, "created_at")
		}
	}
	return objects, nil
}
