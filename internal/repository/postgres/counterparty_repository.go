package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/nurlyy/contract_manager/internal/domain"
	"github.com/nurlyy/contract_manager/internal/repository"
	"github.com/nurlyy/contract_manager/pkg/database"
	"github.com/nurlyy/contract_manager/pkg/logger"
)

// CounterpartyRepository реализует репозиторий контрагентов с использованием PostgreSQL
type CounterpartyRepository struct {
	db     *database.Postgres
	logger logger.Logger
}

// NewCounterpartyRepository создает новый экземпляр CounterpartyRepository
func NewCounterpartyRepository(db *database.Postgres, logger logger.Logger) *CounterpartyRepository {
	return &CounterpartyRepository{
		db:     db,
		logger: logger,
	}
}

// Create создает нового контрагента
func (r *CounterpartyRepository) Create(ctx context.Context, counterparty *domain.Counterparty) error {
	query := `
		INSERT INTO counterparties (
			id, name, type, tax_id, address, contact_name, contact_email, contact_phone,
			created_by, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		) RETURNING id
	`

	err := r.db.DB.QueryRowxContext(
		ctx,
		query,
		counterparty.ID,
		counterparty.Name,
		counterparty.Type,
		counterparty.TaxID,
		counterparty.Address,
		counterparty.ContactName,
		counterparty.ContactEmail,
		counterparty.ContactPhone,
		counterparty.CreatedBy,
		counterparty.CreatedAt,
		counterparty.UpdatedAt,
	).Scan(&counterparty.ID)

	if err != nil {
		r.logger.Error("Failed to create counterparty", err, map[string]interface{}{
			"name": counterparty.Name,
		})
		return fmt.Errorf("failed to create counterparty: %w", err)
	}

	return nil
}

// GetByID возвращает контрагента по ID
func (r *CounterpartyRepository) GetByID(ctx context.Context, id string) (*domain.Counterparty, error) {
	query := `
		SELECT
			id, name, type, tax_id, address, contact_name, contact_email, contact_phone,
			created_by, created_at, updated_at
		FROM counterparties
		WHERE id = $1
	`

	var counterparty domain.Counterparty
	err := r.db.DB.GetContext(ctx, &counterparty, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to get counterparty by ID", err, map[string]interface{}{
			"id": id,
		})
		return nil, fmt.Errorf("failed to get counterparty by ID: %w", err)
	}

	return &counterparty, nil
}

// GetByTaxID возвращает контрагента по налоговому идентификатору
func (r *CounterpartyRepository) GetByTaxID(ctx context.Context, taxID string) (*domain.Counterparty, error) {
	query := `
		SELECT
			id, name, type, tax_id, address, contact_name, contact_email, contact_phone,
			created_by, created_at, updated_at
		FROM counterparties
		WHERE tax_id = $1
	`

	var counterparty domain.Counterparty
	err := r.db.DB.GetContext(ctx, &counterparty, query, taxID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to get counterparty by tax ID", err, map[string]interface{}{
			"tax_id": taxID,
		})
		return nil, fmt.Errorf("failed to get counterparty by tax ID: %w", err)
	}

	return &counterparty, nil
}

// Update обновляет данные контрагента
func (r *CounterpartyRepository) Update(ctx context.Context, counterparty *domain.Counterparty) error {
	query := `
		UPDATE counterparties
		SET
			name = $1,
			type = $2,
			tax_id = $3,
			address = $4,
			contact_name = $5,
			contact_email = $6,
			contact_phone = $7,
			updated_at = $8
		WHERE id = $9
	`

	counterparty.UpdatedAt = time.Now()

	result, err := r.db.DB.ExecContext(
		ctx,
		query,
		counterparty.Name,
		counterparty.Type,
		counterparty.TaxID,
		counterparty.Address,
		counterparty.ContactName,
		counterparty.ContactEmail,
		counterparty.ContactPhone,
		counterparty.UpdatedAt,
		counterparty.ID,
	)

	if err != nil {
		r.logger.Error("Failed to update counterparty", err, map[string]interface{}{
			"id": counterparty.ID,
		})
		return fmt.Errorf("failed to update counterparty: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return domain.ErrCounterpartyNotFound
	}

	return nil
}

// Delete удаляет контрагента по ID
func (r *CounterpartyRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM counterparties WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete counterparty", err, map[string]interface{}{
			"id": id,
		})
		return fmt.Errorf("failed to delete counterparty: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return domain.ErrCounterpartyNotFound
	}

	return nil
}

// List возвращает список контрагентов с фильтрацией
func (r *CounterpartyRepository) List(ctx context.Context, filter repository.CounterpartyFilter) ([]*domain.Counterparty, error) {
	whereClause, args := r.buildWhereClause(filter)
	orderClause := r.buildOrderClause(filter)

	limitOffset := ""
	if filter.Limit > 0 {
		limitOffset = fmt.Sprintf("LIMIT %d OFFSET %d", filter.Limit, filter.Offset)
	}

	query := fmt.Sprintf(`
		SELECT
			id, name, type, tax_id, address, contact_name, contact_email, contact_phone,
			created_by, created_at, updated_at
		FROM counterparties
		%s
		%s
		%s
	`, whereClause, orderClause, limitOffset)

	counterparties := []*domain.Counterparty{}
	err := r.db.DB.SelectContext(ctx, &counterparties, query, args...)
	if err != nil {
		r.logger.Error("Failed to list counterparties", err)
		return nil, fmt.Errorf("failed to list counterparties: %w", err)
	}

	return counterparties, nil
}

// Count возвращает количество контрагентов с фильтрацией
func (r *CounterpartyRepository) Count(ctx context.Context, filter repository.CounterpartyFilter) (int64, error) {
	whereClause, args := r.buildWhereClause(filter)

	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM counterparties
		%s
	`, whereClause)

	var count int64
	err := r.db.DB.GetContext(ctx, &count, query, args...)
	if err != nil {
		r.logger.Error("Failed to count counterparties", err)
		return 0, fmt.Errorf("failed to count counterparties: %w", err)
	}

	return count, nil
}

// Вспомогательные функции

func (r *CounterpartyRepository) buildWhereClause(filter repository.CounterpartyFilter) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}
	argIndex := 1

	if len(filter.IDs) > 0 {
		placeholders := make([]string, len(filter.IDs))
		for i, id := range filter.IDs {
			placeholders[i] = fmt.Sprintf("$%d", argIndex)
			args = append(args, id)
			argIndex++
		}
		conditions = append(conditions, fmt.Sprintf("id IN (%s)", strings.Join(placeholders, ", ")))
	}

	if filter.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argIndex))
		args = append(args, *filter.Type)
		argIndex++
	}

	if filter.CreatedBy != nil {
		conditions = append(conditions, fmt.Sprintf("created_by = $%d", argIndex))
		args = append(args, *filter.CreatedBy)
		argIndex++
	}

	if filter.SearchText != nil {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR tax_id ILIKE $%d)", argIndex, argIndex))
		searchPattern := "%" + *filter.SearchText + "%"
		args = append(args, searchPattern)
		argIndex++
	}

	if len(conditions) > 0 {
		return "WHERE " + strings.Join(conditions, " AND "), args
	}
	return "", args
}

func (r *CounterpartyRepository) buildOrderClause(filter repository.CounterpartyFilter) string {
	if filter.OrderBy != nil {
		direction := "ASC"
		if filter.OrderDir != nil && strings.ToUpper(*filter.OrderDir) == "DESC" {
			direction = "DESC"
		}

		allowedFields := map[string]bool{
			"id":         true,
			"name":       true,
			"type":       true,
			"created_at": true,
			"updated_at": true,
		}

		if allowedFields[*filter.OrderBy] {
			return fmt.Sprintf("ORDER BY %s %s", *filter.OrderBy, direction)
		}
	}

	return "ORDER BY name ASC"
}
