package embedded

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"ecofinds/internal/gateway"
	"ecofinds/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// table describes a public table and its row policy.
type table struct {
	newModel func() any
	// ownerColumn holds the id of the user allowed to write the row.
	ownerColumn string
	// privateReads limits reads to the owner's own rows.
	privateReads bool
	// embeds maps an embeddable table to the GORM association that loads it.
	embeds map[string]string
}

var tables = map[string]table{
	"profiles": {
		newModel:    func() any { return &models.Profile{} },
		ownerColumn: "id",
	},
	"products": {
		newModel:    func() any { return &models.Product{} },
		ownerColumn: "user_id",
		embeds:      map[string]string{"profiles": "Profile"},
	},
	"cart": {
		newModel:     func() any { return &models.CartEntry{} },
		ownerColumn:  "user_id",
		privateReads: true,
		embeds:       map[string]string{"products": "Product"},
	},
}

type owned interface {
	OwnerID() string
}

func lookup(name string) (table, error) {
	t, ok := tables[name]
	if !ok {
		return table{}, gateway.Errorf("42P01", "relation %q does not exist", name)
	}
	return t, nil
}

func denied(name string) error {
	return gateway.Errorf(gateway.CodePermissionDenied, "new row violates row-level security policy for table %q", name)
}

// preloads turns embeds into GORM preload paths, e.g. "Product.Profile".
func preloads(tableName string, embeds []gateway.Embed, prefix string) ([]string, error) {
	t, err := lookup(tableName)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range embeds {
		assoc, ok := t.embeds[e.Table]
		if !ok {
			return nil, gateway.Errorf("PGRST200", "Could not find a relationship between %q and %q", tableName, e.Table)
		}
		path := prefix + assoc
		paths = append(paths, path)
		nested, err := preloads(e.Table, e.Embeds, path+".")
		if err != nil {
			return nil, err
		}
		paths = append(paths, nested...)
	}
	return paths, nil
}

func applyFilters(tx *gorm.DB, filters []gateway.Filter) *gorm.DB {
	for _, f := range filters {
		switch f.Op {
		case gateway.OpEq:
			tx = tx.Where(clause.Eq{Column: clause.Column{Name: f.Column}, Value: f.Value})
		case gateway.OpILike:
			// Column names are validated identifiers.
			tx = tx.Where("LOWER("+f.Column+") LIKE LOWER(?)", f.Value)
		}
	}
	return tx
}

// Select reads rows. Column lists are not projected: full rows are returned.
func (b *Backend) Select(ctx context.Context, q *gateway.Query, dest any) error {
	if err := q.Validate(); err != nil {
		return err
	}
	t, err := lookup(q.Table)
	if err != nil {
		return err
	}
	caller, err := b.caller(ctx)
	if err != nil {
		return err
	}
	paths, err := preloads(q.Table, q.Embeds, "")
	if err != nil {
		return err
	}

	tx := b.db.WithContext(ctx).Table(q.Table)
	if t.privateReads {
		// Anonymous callers match nothing.
		tx = tx.Where(clause.Eq{Column: clause.Column{Name: t.ownerColumn}, Value: caller})
	}
	for _, p := range paths {
		tx = tx.Preload(p)
	}
	tx = applyFilters(tx, q.Filters)
	if q.Sort != nil {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: q.Sort.Column}, Desc: !q.Sort.Ascending})
	}
	if q.Max > 0 {
		tx = tx.Limit(q.Max)
	}

	if q.One {
		return selectOne(tx, dest)
	}
	return translate(tx.Find(dest).Error)
}

// selectOne reads at most two rows so that both zero and several matches
// report CodeNoRows.
func selectOne(tx *gorm.DB, dest any) error {
	target := reflect.ValueOf(dest)
	if target.Kind() != reflect.Ptr || target.IsNil() {
		return gateway.Errorf(gateway.CodeInvalidRequest, "single-row select needs a pointer, got %T", dest)
	}
	rows := reflect.New(reflect.SliceOf(target.Elem().Type()))
	if err := tx.Limit(2).Find(rows.Interface()).Error; err != nil {
		return translate(err)
	}
	if n := rows.Elem().Len(); n != 1 {
		gErr := gateway.Errorf(gateway.CodeNoRows, "JSON object requested, multiple (or no) rows returned")
		gErr.Details = fmt.Sprintf("The result contains %d rows", n)
		return gErr
	}
	target.Elem().Set(rows.Elem().Index(0))
	return nil
}

// Insert creates rows owned by the caller.
func (b *Backend) Insert(ctx context.Context, tableName string, rows any, dest any) error {
	if _, err := lookup(tableName); err != nil {
		return err
	}
	caller, err := b.caller(ctx)
	if err != nil {
		return err
	}
	if caller == "" {
		return denied(tableName)
	}

	v := reflect.ValueOf(rows)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice {
		return gateway.Errorf(gateway.CodeInvalidRequest, "insert expects a slice of rows, got %T", rows)
	}
	if v.Len() == 0 {
		return nil
	}
	// Work on an addressable copy so hooks can fill ids.
	batch := reflect.New(v.Type())
	batch.Elem().Set(reflect.MakeSlice(v.Type(), v.Len(), v.Len()))
	reflect.Copy(batch.Elem(), v)

	for i := 0; i < batch.Elem().Len(); i++ {
		row, ok := batch.Elem().Index(i).Interface().(owned)
		if !ok {
			row, ok = batch.Elem().Index(i).Addr().Interface().(owned)
		}
		if !ok || row.OwnerID() != caller {
			return denied(tableName)
		}
	}

	if err := b.db.WithContext(ctx).Table(tableName).Create(batch.Interface()).Error; err != nil {
		return translate(err)
	}
	if dest != nil {
		out := reflect.ValueOf(dest)
		if out.Kind() != reflect.Ptr || out.Elem().Type() != v.Type() {
			return gateway.Errorf(gateway.CodeInvalidRequest, "insert result must be %s, got %T", reflect.PointerTo(v.Type()), dest)
		}
		out.Elem().Set(batch.Elem())
	}
	return nil
}

// Update changes the caller's own rows that match filters. Rows the caller
// does not own are left alone without an error.
func (b *Backend) Update(ctx context.Context, tableName string, values map[string]any, filters ...gateway.Filter) error {
	t, err := lookup(tableName)
	if err != nil {
		return err
	}
	caller, err := b.scopedWrite(ctx, tableName, filters)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}
	for col, val := range values {
		if !gateway.ValidIdent(col) {
			return gateway.Errorf(gateway.CodeInvalidRequest, "invalid column %q", col)
		}
		if col == t.ownerColumn && val != caller {
			return denied(tableName)
		}
	}

	tx := b.db.WithContext(ctx).Model(t.newModel()).
		Where(clause.Eq{Column: clause.Column{Name: t.ownerColumn}, Value: caller})
	tx = applyFilters(tx, filters)
	return translate(tx.Updates(values).Error)
}

// Delete removes the caller's own rows that match filters.
func (b *Backend) Delete(ctx context.Context, tableName string, filters ...gateway.Filter) error {
	t, err := lookup(tableName)
	if err != nil {
		return err
	}
	caller, err := b.scopedWrite(ctx, tableName, filters)
	if err != nil {
		return err
	}

	tx := b.db.WithContext(ctx).
		Where(clause.Eq{Column: clause.Column{Name: t.ownerColumn}, Value: caller})
	tx = applyFilters(tx, filters)
	return translate(tx.Delete(t.newModel()).Error)
}

func (b *Backend) scopedWrite(ctx context.Context, tableName string, filters []gateway.Filter) (string, error) {
	for _, f := range filters {
		if err := f.Validate(); err != nil {
			return "", err
		}
	}
	caller, err := b.caller(ctx)
	if err != nil {
		return "", err
	}
	if caller == "" {
		return "", denied(tableName)
	}
	return caller, nil
}

// translate maps database errors onto backend error codes.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var gErr *gateway.Error
	if errors.As(err, &gErr) {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &gateway.Error{Code: gateway.CodeUniqueViolation, Message: "duplicate key value violates unique constraint", Details: err.Error()}
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return &gateway.Error{Code: gateway.CodeForeignKey, Message: "violates foreign key constraint", Details: err.Error()}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &gateway.Error{Code: pgErr.Code, Message: pgErr.Message, Details: pgErr.Detail}
	}
	return &gateway.Error{Code: gateway.CodeInternal, Message: fmt.Sprintf("database error: %v", err)}
}
