package imports

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/coldrackhq/coldrack-backend/internal/history"
	"github.com/coldrackhq/coldrack-backend/internal/permissions"
	"github.com/coldrackhq/coldrack-backend/internal/racks"
	"github.com/coldrackhq/coldrack-backend/pkg/config"
	"github.com/coldrackhq/coldrack-backend/pkg/db/models"
	"github.com/coldrackhq/coldrack-backend/pkg/enums"
	pkgerrors "github.com/coldrackhq/coldrack-backend/pkg/errors"
	"github.com/coldrackhq/coldrack-backend/pkg/logger"
	"github.com/coldrackhq/coldrack-backend/pkg/outbox"
)

// RackRowDTO is one validated rack-content row. Floor 0 means the cell was
// empty and defaults to 1 on commit.
type RackRowDTO struct {
	Row          int             `json:"row"`
	Line         string          `json:"line"`
	RackName     string          `json:"rackName"`
	ProductCode  string          `json:"productCode"`
	Floor        int             `json:"floor"`
	WeightKG     decimal.Decimal `json:"weightKg"`
	Manufacturer string          `json:"manufacturer"`
}

// ProductCodeRowDTO is one validated catalog row.
type ProductCodeRowDTO struct {
	Row         int    `json:"row"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// RackPreview partitions parsed rows into valid rows, in original sheet
// order, and per-row rejections.
type RackPreview struct {
	Valid  []RackRowDTO `json:"valid"`
	Errors []RowError   `json:"errors"`
}

// ProductCodePreview is the catalog-import counterpart of RackPreview.
type ProductCodePreview struct {
	Valid  []ProductCodeRowDTO `json:"valid"`
	Errors []RowError          `json:"errors"`
}

// CommitResult reports how many rows applied and which groups failed.
// Commits are independent per rack, so a failure leaves other racks applied.
type CommitResult struct {
	SuccessCount int      `json:"successCount"`
	Errors       []string `json:"errors"`
}

type transactor interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type rackStore interface {
	DistinctLines(ctx context.Context) ([]string, error)
	FindByLineAndName(ctx context.Context, line, name string) (*models.Rack, error)
	CreateTx(tx *gorm.DB, rack *models.Rack) error
	InsertPlacementTx(tx *gorm.DB, placement *models.RackPlacement) error
	TouchTx(tx *gorm.DB, id uuid.UUID, at time.Time) error
}

type catalogStore interface {
	ExistingCodes(ctx context.Context, codes []string) (map[string]bool, error)
	CodesByCode(ctx context.Context, codes []string) (map[string]models.ProductCode, error)
	CreateCodeTx(tx *gorm.DB, code *models.ProductCode) error
}

// Service runs the spreadsheet import pipeline: preview validates rows
// against current reference data, commit applies them rack by rack.
type Service interface {
	PreviewRacks(ctx context.Context, file io.Reader) (*RackPreview, error)
	CommitRacks(ctx context.Context, actor *permissions.Identity, rows []RackRowDTO) (*CommitResult, error)
	PreviewProductCodes(ctx context.Context, file io.Reader) (*ProductCodePreview, error)
	CommitProductCodes(ctx context.Context, actor *permissions.Identity, rows []ProductCodeRowDTO) (*CommitResult, error)
}

type service struct {
	tx       transactor
	racks    rackStore
	catalog  catalogStore
	recorder *history.Recorder
	changes  *outbox.Service
	cfg      config.ImportConfig
	logg     *logger.Logger
}

// ServiceParams bundles the dependencies required to build an import service.
type ServiceParams struct {
	Tx       transactor
	Racks    rackStore
	Catalog  catalogStore
	Recorder *history.Recorder
	Changes  *outbox.Service
	Config   config.ImportConfig
	Logger   *logger.Logger
}

// NewService constructs an import service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transactor is required")
	}
	if params.Racks == nil {
		return nil, fmt.Errorf("rack store is required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog store is required")
	}
	if params.Recorder == nil {
		return nil, fmt.Errorf("history recorder is required")
	}
	if params.Changes == nil {
		return nil, fmt.Errorf("outbox service is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		tx:       params.Tx,
		racks:    params.Racks,
		catalog:  params.Catalog,
		recorder: params.Recorder,
		changes:  params.Changes,
		cfg:      params.Config,
		logg:     params.Logger,
	}, nil
}

// PreviewRacks parses the first sheet and validates every row against the
// current line set and catalog. Checks run in a fixed order and the first
// failing check rejects the row.
func (s *service) PreviewRacks(ctx context.Context, file io.Reader) (*RackPreview, error) {
	rows, err := readSheet(file)
	if err != nil {
		return nil, err
	}
	if s.cfg.MaxRows > 0 && len(rows) > s.cfg.MaxRows {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "spreadsheet exceeds the %d row limit", s.cfg.MaxRows)
	}

	lines, err := s.racks.DistinctLines(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load rack lines")
	}
	knownLines := make(map[string]bool, len(lines))
	for _, line := range lines {
		knownLines[line] = true
	}

	codes := make([]string, 0, len(rows))
	for _, row := range rows {
		if code := row.get(HeaderProductCode); code != "" {
			codes = append(codes, code)
		}
	}
	knownCodes, err := s.catalog.ExistingCodes(ctx, codes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load catalog codes")
	}

	preview := &RackPreview{Valid: []RackRowDTO{}, Errors: []RowError{}}
	for _, row := range rows {
		dto, rowErr := validateRackRow(row, knownLines, knownCodes)
		if rowErr != nil {
			preview.Errors = append(preview.Errors, *rowErr)
			continue
		}
		preview.Valid = append(preview.Valid, *dto)
	}
	return preview, nil
}

func validateRackRow(row rawRow, knownLines, knownCodes map[string]bool) (*RackRowDTO, *RowError) {
	reject := func(format string, args ...any) (*RackRowDTO, *RowError) {
		return nil, &RowError{Row: row.number, Message: fmt.Sprintf(format, args...)}
	}

	line := row.get(HeaderLine)
	name := row.get(HeaderRackName)
	code := row.get(HeaderProductCode)
	if line == "" {
		return reject("%s 값이 없습니다", HeaderLine)
	}
	if name == "" {
		return reject("%s 값이 없습니다", HeaderRackName)
	}
	if code == "" {
		return reject("%s 값이 없습니다", HeaderProductCode)
	}
	if !knownLines[line] {
		return reject("존재하지 않는 라인입니다: %s", line)
	}
	if !knownCodes[code] {
		return reject("등록되지 않은 품목코드입니다: %s", code)
	}

	floor := 0
	if raw := row.get(HeaderFloor); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < racks.FloorMin || parsed > racks.FloorMax {
			return reject("%s 값은 %d부터 %d 사이의 정수여야 합니다", HeaderFloor, racks.FloorMin, racks.FloorMax)
		}
		floor = parsed
	}

	rawWeight := row.get(HeaderWeight)
	if rawWeight == "" {
		return reject("%s 값이 없습니다", HeaderWeight)
	}
	weight, err := decimal.NewFromString(rawWeight)
	if err != nil || weight.Sign() <= 0 {
		return reject("%s 값이 올바르지 않습니다: %s", HeaderWeight, rawWeight)
	}

	manufacturer := row.get(HeaderManufacturer)
	if manufacturer == "" {
		return reject("%s 값이 없습니다", HeaderManufacturer)
	}

	return &RackRowDTO{
		Row:          row.number,
		Line:         line,
		RackName:     name,
		ProductCode:  code,
		Floor:        floor,
		WeightKG:     weight,
		Manufacturer: manufacturer,
	}, nil
}

type rackGroup struct {
	line string
	name string
	rows []RackRowDTO
}

// CommitRacks applies validated rows grouped by (line, rack name). A rack
// unseen in the database is created once per batch and shared by every row
// addressed to it. Each group commits independently; failures are aggregated
// and do not roll back other groups.
func (s *service) CommitRacks(ctx context.Context, actor *permissions.Identity, rows []RackRowDTO) (*CommitResult, error) {
	if len(rows) == 0 {
		return &CommitResult{Errors: []string{}}, nil
	}

	codes := make([]string, 0, len(rows))
	for _, row := range rows {
		codes = append(codes, row.ProductCode)
	}
	catalogByCode, err := s.catalog.CodesByCode(ctx, codes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load catalog codes")
	}

	groups := groupRows(rows)
	result := &CommitResult{Errors: []string{}}
	var failures error

	for _, group := range groups {
		applied, err := s.commitGroup(ctx, actor, group, catalogByCode)
		if err != nil {
			failures = multierr.Append(failures, fmt.Errorf("%s %s: %w", group.line, group.name, err))
			continue
		}
		result.SuccessCount += applied
	}

	for _, err := range multierr.Errors(failures) {
		result.Errors = append(result.Errors, err.Error())
	}
	if failures != nil {
		lctx := s.logg.WithFields(ctx, map[string]any{
			"applied_rows": result.SuccessCount,
			"failed_racks": len(result.Errors),
		})
		s.logg.Warn(lctx, "rack import committed partially")
	}
	return result, nil
}

func groupRows(rows []RackRowDTO) []*rackGroup {
	index := make(map[string]*rackGroup, len(rows))
	ordered := make([]*rackGroup, 0, len(rows))
	for _, row := range rows {
		key := row.Line + "\x00" + row.RackName
		group, ok := index[key]
		if !ok {
			group = &rackGroup{line: row.Line, name: row.RackName}
			index[key] = group
			ordered = append(ordered, group)
		}
		group.rows = append(group.rows, row)
	}
	return ordered
}

func (s *service) commitGroup(ctx context.Context, actor *permissions.Identity, group *rackGroup, catalogByCode map[string]models.ProductCode) (int, error) {
	existing, err := s.racks.FindByLineAndName(ctx, group.line, group.name)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, err
		}
		existing = nil
	}

	now := time.Now()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		rackID := uuid.Nil
		action := enums.ChangeUpdate
		if existing == nil {
			rack := &models.Rack{ID: uuid.New(), Line: group.line, Name: group.name}
			if err := s.racks.CreateTx(tx, rack); err != nil {
				return err
			}
			rackID = rack.ID
			action = enums.ChangeInsert
		} else {
			rackID = existing.ID
		}

		for _, row := range group.rows {
			floor := row.Floor
			if floor == 0 {
				floor = racks.FloorMin
			}
			name := row.ProductCode
			if entry, ok := catalogByCode[row.ProductCode]; ok {
				name = entry.Name
			}
			if err := s.racks.InsertPlacementTx(tx, &models.RackPlacement{
				ID:           uuid.New(),
				RackID:       rackID,
				ProductID:    uuid.New(),
				Code:         row.ProductCode,
				Name:         name,
				Floor:        floor,
				WeightKG:     row.WeightKG,
				Manufacturer: row.Manufacturer,
				InboundAt:    now,
			}); err != nil {
				return err
			}
		}

		if existing != nil {
			if err := s.racks.TouchTx(tx, rackID, now); err != nil {
				return err
			}
		}
		if err := s.recorder.Record(ctx, tx, history.Entry{
			Type:    enums.ActivityImport,
			Actor:   history.ActorFrom(actor),
			Summary: fmt.Sprintf("imported %d placements into rack %s (line %s)", len(group.rows), group.name, group.line),
			Details: map[string]any{"rack_id": rackID.String(), "rows": len(group.rows)},
		}); err != nil {
			return err
		}
		return s.changes.Emit(ctx, tx, outbox.Change{
			Table:    enums.TableRacks,
			Action:   action,
			EntityID: rackID,
			Actor:    actorRef(actor),
		})
	})
	if err != nil {
		return 0, err
	}
	return len(group.rows), nil
}

// PreviewProductCodes validates catalog rows. Only the code column is
// required; name falls back to the code on commit.
func (s *service) PreviewProductCodes(ctx context.Context, file io.Reader) (*ProductCodePreview, error) {
	rows, err := readSheet(file)
	if err != nil {
		return nil, err
	}
	if s.cfg.MaxRows > 0 && len(rows) > s.cfg.MaxRows {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "spreadsheet exceeds the %d row limit", s.cfg.MaxRows)
	}

	preview := &ProductCodePreview{Valid: []ProductCodeRowDTO{}, Errors: []RowError{}}
	for _, row := range rows {
		code := row.get(HeaderCode)
		if code == "" {
			preview.Errors = append(preview.Errors, RowError{
				Row:     row.number,
				Message: fmt.Sprintf("%s 값이 없습니다", HeaderCode),
			})
			continue
		}
		preview.Valid = append(preview.Valid, ProductCodeRowDTO{
			Row:         row.number,
			Code:        code,
			Name:        row.get(HeaderName),
			Description: row.get(HeaderDescription),
			Category:    row.get(HeaderCategory),
		})
	}
	return preview, nil
}

// CommitProductCodes inserts one catalog entry per row. Rows commit
// independently so one failure does not block the rest of the batch.
func (s *service) CommitProductCodes(ctx context.Context, actor *permissions.Identity, rows []ProductCodeRowDTO) (*CommitResult, error) {
	result := &CommitResult{Errors: []string{}}
	var failures error

	for _, row := range rows {
		name := strings.TrimSpace(row.Name)
		if name == "" {
			name = row.Code
		}
		entry := &models.ProductCode{
			ID:          uuid.New(),
			Code:        row.Code,
			Name:        name,
			Description: strings.TrimSpace(row.Description),
			Category:    strings.TrimSpace(row.Category),
		}
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if err := s.catalog.CreateCodeTx(tx, entry); err != nil {
				return err
			}
			if err := s.recorder.Record(ctx, tx, history.Entry{
				Type:    enums.ActivityImport,
				Actor:   history.ActorFrom(actor),
				Summary: fmt.Sprintf("imported product code %s", entry.Code),
				Details: map[string]string{"product_code_id": entry.ID.String()},
			}); err != nil {
				return err
			}
			return s.changes.Emit(ctx, tx, outbox.Change{
				Table:    enums.TableProductCodes,
				Action:   enums.ChangeInsert,
				EntityID: entry.ID,
				Actor:    actorRef(actor),
			})
		})
		if err != nil {
			failures = multierr.Append(failures, fmt.Errorf("행 %d: %w", row.Row, err))
			continue
		}
		result.SuccessCount++
	}

	for _, err := range multierr.Errors(failures) {
		result.Errors = append(result.Errors, err.Error())
	}
	return result, nil
}

func actorRef(identity *permissions.Identity) *outbox.ActorRef {
	if identity == nil {
		return nil
	}
	return outbox.ActorRefFrom(identity.UserID, string(identity.Role))
}
