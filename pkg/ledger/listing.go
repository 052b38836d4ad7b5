package ledger

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/critsec/iams/pkg/apperr"
	"github.com/critsec/iams/pkg/flags"
)

// DefaultPageSize is used when page_size is not specified.
const DefaultPageSize = 20

// MaxPageSize is the upper bound for page_size.
const MaxPageSize = 100

// ListParams holds the paginated listing parameters. Page is 1-based and is
// clamped to [1, total_pages] after the count is known, so a stale page
// number after a filter change still returns a valid page.
type ListParams struct {
	Page     int
	PageSize int
	SortCol  string
	SortDesc bool

	// sortSet records whether the caller named a sort column; without one
	// the listing falls back to the stream default (date desc, id desc
	// for VMs). A listing always carries an explicit order.
	sortSet bool
}

// ParseListParams extracts page, page_size, sort_column and sort_direction
// from the request query string.
func ParseListParams(r *http.Request) ListParams {
	q := r.URL.Query()

	p := ListParams{Page: 1, PageSize: DefaultPageSize}
	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Page = n
		}
	}
	if v := q.Get("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.PageSize = n
		}
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}

	if v := q.Get("sort_column"); v != "" {
		p.SortCol = v
		p.sortSet = true
		// A freshly selected column sorts ascending until toggled.
		p.SortDesc = strings.EqualFold(q.Get("sort_direction"), "desc")
	}

	return p
}

// ListResult is a page of flagged rows plus pagination metadata.
type ListResult struct {
	Rows       any   `json:"rows"`
	TotalCount int64 `json:"total_count"`
	TotalPages int64 `json:"total_pages"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
}

// sortable columns per stream.
var (
	logSortCols   = map[string]string{"id": "id", "date": "date", "employee_id": "employee_id", "asset_id": "asset_id", "project_id": "project_id", "logtype_id": "logtype_id", "result": "result"}
	imageSortCols = map[string]string{"id": "id", "date": "date", "employee_id": "employee_id", "asset_id": "asset_id", "project_id": "project_id", "imgmethod_id": "imgmethod_id", "img_size_mb": "img_size_mb", "result": "result"}
	datSortCols   = map[string]string{"id": "id", "date": "date", "employee_id": "employee_id", "asset_id": "asset_id", "project_id": "project_id", "datversion_id": "datversion_id", "datfile_name": "datfile_name", "result": "result"}
	vmSortCols    = map[string]string{"id": "id", "asset_id": "asset_id", "project_id": "project_id", "vmtype_id": "vmtype_id", "vmstatus_id": "vmstatus_id", "creator_employee_id": "creator_employee_id"}
)

// orderClause resolves the explicit ordering for a stream. Unknown sort
// columns are a validation error.
func orderClause(p ListParams, cols map[string]string, defaultOrder string) (string, error) {
	if !p.sortSet {
		return defaultOrder, nil
	}
	col, ok := cols[p.SortCol]
	if !ok {
		return "", apperr.Validation("cannot sort by %q", p.SortCol)
	}
	dir := "ASC"
	if p.SortDesc {
		dir = "DESC"
	}
	// Secondary id ordering keeps pages stable under equal keys.
	return fmt.Sprintf("%s %s, id %s", col, dir, dir), nil
}

// clampPage resolves the final page number and total pages from the count.
// Zero-value params get the default page size, so callers constructing
// ListParams directly behave like the HTTP path.
func clampPage(p *ListParams, total int64) int64 {
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	totalPages := (total + int64(p.PageSize) - 1) / int64(p.PageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if int64(p.Page) > totalPages {
		p.Page = int(totalPages)
	}
	return totalPages
}

// ListLogs returns one page of log collections with flags evaluated against
// the whole table.
func (s *Store) ListLogs(ctx context.Context, p ListParams) (*ListResult, error) {
	order, err := orderClause(p, logSortCols, "date DESC, id DESC")
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var total int64
	if err := db.Model(&LogCollection{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count log collections: %w", err)
	}
	totalPages := clampPage(&p, total)

	var page []LogCollection
	if err := db.Order(order).Limit(p.PageSize).Offset((p.Page - 1) * p.PageSize).
		Find(&page).Error; err != nil {
		return nil, fmt.Errorf("list log collections: %w", err)
	}

	// Flag context spans the entire table, not just the page.
	var all []LogCollection
	if err := db.Select("id", "date", "employee_id", "asset_id", "project_id", "logtype_id", "result").
		Find(&all).Error; err != nil {
		return nil, fmt.Errorf("load log flag context: %w", err)
	}
	sets := flags.Compute(logFlagRows(all))

	rows := make([]FlaggedLog, len(page))
	for i, row := range page {
		rows[i] = FlaggedLog{
			LogCollection:       row,
			IsRecent:            sets.Recent.Contains(row.ID),
			IsDuplicate:         sets.Duplicate.Contains(row.ID),
			IsUnresolvedFailure: sets.UnresolvedFailure.Contains(row.ID),
		}
	}

	return &ListResult{Rows: rows, TotalCount: total, TotalPages: totalPages, Page: p.Page, PageSize: p.PageSize}, nil
}

// ListImages returns one page of image collections with flags evaluated
// against the whole table.
func (s *Store) ListImages(ctx context.Context, p ListParams) (*ListResult, error) {
	order, err := orderClause(p, imageSortCols, "date DESC, id DESC")
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var total int64
	if err := db.Model(&ImageCollection{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count image collections: %w", err)
	}
	totalPages := clampPage(&p, total)

	var page []ImageCollection
	if err := db.Order(order).Limit(p.PageSize).Offset((p.Page - 1) * p.PageSize).
		Find(&page).Error; err != nil {
		return nil, fmt.Errorf("list image collections: %w", err)
	}

	var all []ImageCollection
	if err := db.Select("id", "date", "employee_id", "asset_id", "project_id", "imgmethod_id", "result").
		Find(&all).Error; err != nil {
		return nil, fmt.Errorf("load image flag context: %w", err)
	}
	sets := flags.Compute(imageFlagRows(all))

	rows := make([]FlaggedImage, len(page))
	for i, row := range page {
		rows[i] = FlaggedImage{
			ImageCollection:     row,
			IsRecent:            sets.Recent.Contains(row.ID),
			IsDuplicate:         sets.Duplicate.Contains(row.ID),
			IsUnresolvedFailure: sets.UnresolvedFailure.Contains(row.ID),
		}
	}

	return &ListResult{Rows: rows, TotalCount: total, TotalPages: totalPages, Page: p.Page, PageSize: p.PageSize}, nil
}

// ListDats returns one page of DAT updates with flags evaluated against the
// whole table.
func (s *Store) ListDats(ctx context.Context, p ListParams) (*ListResult, error) {
	order, err := orderClause(p, datSortCols, "date DESC, id DESC")
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var total int64
	if err := db.Model(&DatUpdate{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count dat updates: %w", err)
	}
	totalPages := clampPage(&p, total)

	var page []DatUpdate
	if err := db.Order(order).Limit(p.PageSize).Offset((p.Page - 1) * p.PageSize).
		Find(&page).Error; err != nil {
		return nil, fmt.Errorf("list dat updates: %w", err)
	}

	var all []DatUpdate
	if err := db.Select("id", "date", "employee_id", "asset_id", "project_id", "datversion_id", "result").
		Find(&all).Error; err != nil {
		return nil, fmt.Errorf("load dat flag context: %w", err)
	}
	sets := flags.Compute(datFlagRows(all))

	rows := make([]FlaggedDat, len(page))
	for i, row := range page {
		rows[i] = FlaggedDat{
			DatUpdate:           row,
			IsRecent:            sets.Recent.Contains(row.ID),
			IsDuplicate:         sets.Duplicate.Contains(row.ID),
			IsUnresolvedFailure: sets.UnresolvedFailure.Contains(row.ID),
		}
	}

	return &ListResult{Rows: rows, TotalCount: total, TotalPages: totalPages, Page: p.Page, PageSize: p.PageSize}, nil
}

// ListVMs returns one page of VM rows. Recency is by greatest id, the
// duplicate tuple is (asset, project, vm type), and four status-derived
// flags replace the unresolved-failure flag.
func (s *Store) ListVMs(ctx context.Context, p ListParams) (*ListResult, error) {
	order, err := orderClause(p, vmSortCols, "id DESC")
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var total int64
	if err := db.Model(&VmCreation{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count vms: %w", err)
	}
	totalPages := clampPage(&p, total)

	var page []VmCreation
	if err := db.Order(order).Limit(p.PageSize).Offset((p.Page - 1) * p.PageSize).
		Find(&page).Error; err != nil {
		return nil, fmt.Errorf("list vms: %w", err)
	}

	var all []VmCreation
	if err := db.Select("id", "asset_id", "project_id", "vmtype_id").Find(&all).Error; err != nil {
		return nil, fmt.Errorf("load vm flag context: %w", err)
	}
	vmRows := make([]flags.VMRow, len(all))
	for i, r := range all {
		vmRows[i] = flags.VMRow{ID: r.ID, AssetID: r.AssetID, ProjectID: r.ProjectID, VMTypeID: r.VmtypeID}
	}
	sets := flags.ComputeVM(vmRows)

	statusNames, err := s.catalog.VMStatusNames()
	if err != nil {
		return nil, err
	}

	rows := make([]FlaggedVM, len(page))
	for i, row := range page {
		name := statusNames[row.VmstatusID]
		rows[i] = FlaggedVM{
			VmCreation:  row,
			StatusName:  name,
			IsRecent:    sets.Recent.Contains(row.ID),
			IsDuplicate: sets.Duplicate.Contains(row.ID),
			StatusFlags: flags.VMStatusFlags(name),
		}
	}

	return &ListResult{Rows: rows, TotalCount: total, TotalPages: totalPages, Page: p.Page, PageSize: p.PageSize}, nil
}

func logFlagRows(all []LogCollection) []flags.EventRow {
	out := make([]flags.EventRow, len(all))
	for i, r := range all {
		out[i] = flags.EventRow{ID: r.ID, Date: r.Date, EmployeeID: r.EmployeeID, AssetID: r.AssetID, ProjectID: r.ProjectID, TypeKey: r.LogtypeID, Result: r.Result}
	}
	return out
}

func imageFlagRows(all []ImageCollection) []flags.EventRow {
	out := make([]flags.EventRow, len(all))
	for i, r := range all {
		out[i] = flags.EventRow{ID: r.ID, Date: r.Date, EmployeeID: r.EmployeeID, AssetID: r.AssetID, ProjectID: r.ProjectID, TypeKey: r.ImgmethodID, Result: r.Result}
	}
	return out
}

func datFlagRows(all []DatUpdate) []flags.EventRow {
	out := make([]flags.EventRow, len(all))
	for i, r := range all {
		out[i] = flags.EventRow{ID: r.ID, Date: r.Date, EmployeeID: r.EmployeeID, AssetID: r.AssetID, ProjectID: r.ProjectID, TypeKey: r.DatversionID, Result: r.Result}
	}
	return out
}
