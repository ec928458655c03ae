package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/nurlyy/contract_manager/internal/domain"
	"github.com/nurlyy/contract_manager/internal/repository"
	"github.com/nurlyy/contract_manager/pkg/database"
	"github.com/nurlyy/contract_manager/pkg/logger"
)

const contractColumns = `
	id, name, description, number, counterparty_id, status, amount, currency,
	start_date, end_date, signed_at, created_by, manager_id, created_at, updated_at
`

// ContractRepository реализует репозиторий контрактов с использованием PostgreSQL
type ContractRepository struct {
	db     *database.Postgres
	logger logger.Logger
}

// NewContractRepository создает новый экземпляр ContractRepository
func NewContractRepository(db *database.Postgres, logger logger.Logger) *ContractRepository {
	return &ContractRepository{
		db:     db,
		logger: logger,
	}
}

// Create создает новый контракт, ID генерируется базой данных
func (r *ContractRepository) Create(ctx context.Context, contract *domain.Contract) error {
	query := `
		INSERT INTO contracts (
			name, description, number, counterparty_id, status, amount, currency,
			start_date, end_date, signed_at, created_by, manager_id, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		) RETURNING id
	`

	err := r.db.DB.QueryRowxContext(
		ctx,
		query,
		contract.Name,
		contract.Description,
		contract.Number,
		contract.CounterpartyID,
		contract.Status,
		contract.Amount,
		contract.Currency,
		contract.StartDate,
		contract.EndDate,
		contract.SignedAt,
		contract.CreatedBy,
		contract.ManagerID,
		contract.CreatedAt,
		contract.UpdatedAt,
	).Scan(&contract.ID)

	if err != nil {
		r.logger.Error("Failed to create contract", err, map[string]interface{}{
			"name": contract.Name,
		})
		return fmt.Errorf("failed to create contract: %w", err)
	}

	return nil
}

// GetByID возвращает контракт по ID
func (r *ContractRepository) GetByID(ctx context.Context, id int64) (*domain.Contract, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM contracts
		WHERE id = $1
	`, contractColumns)

	var contract domain.Contract
	err := r.db.DB.GetContext(ctx, &contract, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to get contract by ID", err, map[string]interface{}{
			"id": id,
		})
		return nil, fmt.Errorf("failed to get contract by ID: %w", err)
	}

	return &contract, nil
}

// Update полностью заменяет изменяемые поля контракта
func (r *ContractRepository) Update(ctx context.Context, contract *domain.Contract) error {
	query := `
		UPDATE contracts
		SET
			name = $1,
			description = $2,
			number = $3,
			counterparty_id = $4,
			amount = $5,
			currency = $6,
			start_date = $7,
			end_date = $8,
			signed_at = $9,
			manager_id = $10,
			updated_at = $11
		WHERE id = $12
	`

	contract.UpdatedAt = time.Now()

	result, err := r.db.DB.ExecContext(
		ctx,
		query,
		contract.Name,
		contract.Description,
		contract.Number,
		contract.CounterpartyID,
		contract.Amount,
		contract.Currency,
		contract.StartDate,
		contract.EndDate,
		contract.SignedAt,
		contract.ManagerID,
		contract.UpdatedAt,
		contract.ID,
	)

	if err != nil {
		r.logger.Error("Failed to update contract", err, map[string]interface{}{
			"id": contract.ID,
		})
		return fmt.Errorf("failed to update contract: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return domain.ErrContractNotFound
	}

	return nil
}

// UpdateStatus атомарно меняет статус контракта с блокировкой строки.
// Допустимость перехода проверяется по текущему статусу внутри транзакции.
func (r *ContractRepository) UpdateStatus(ctx context.Context, id int64, status domain.ContractStatus, updatedBy string) (*domain.Contract, error) {
	var contract domain.Contract

	err := r.db.ExecTx(ctx, func(tx *sqlx.Tx) error {
		// Устанавливаем значение app.current_user_id для аудит-триггера
		if _, err := tx.ExecContext(ctx, "SELECT set_config('app.current_user_id', $1, true)", updatedBy); err != nil {
			return fmt.Errorf("failed to set local variable: %w", err)
		}

		var current domain.ContractStatus
		err := tx.GetContext(ctx, &current, "SELECT status FROM contracts WHERE id = $1 FOR UPDATE", id)
		if err != nil {
			if err == sql.ErrNoRows {
				return domain.ErrContractNotFound
			}
			return fmt.Errorf("failed to lock contract: %w", err)
		}

		if current == domain.ContractStatusTerminated {
			return domain.ErrContractTerminated
		}
		if !domain.CanTransition(current, status) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidStatusTransition, current, status)
		}

		query := fmt.Sprintf(`
			UPDATE contracts
			SET status = $1, updated_at = $2
			WHERE id = $3
			RETURNING %s
		`, contractColumns)

		if err := tx.QueryRowxContext(ctx, query, status, time.Now(), id).StructScan(&contract); err != nil {
			return fmt.Errorf("failed to update contract status: %w", err)
		}

		return nil
	})

	if err != nil {
		if err != domain.ErrContractNotFound && err != domain.ErrContractTerminated {
			r.logger.Error("Failed to update contract status", err, map[string]interface{}{
				"id":     id,
				"status": status,
			})
		}
		return nil, err
	}

	return &contract, nil
}

// Delete удаляет контракт и возвращает удаленную запись
func (r *ContractRepository) Delete(ctx context.Context, id int64) (*domain.Contract, error) {
	query := fmt.Sprintf(`
		DELETE FROM contracts
		WHERE id = $1
		RETURNING %s
	`, contractColumns)

	var contract domain.Contract
	err := r.db.DB.QueryRowxContext(ctx, query, id).StructScan(&contract)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to delete contract", err, map[string]interface{}{
			"id": id,
		})
		return nil, fmt.Errorf("failed to delete contract: %w", err)
	}

	return &contract, nil
}

// List возвращает список контрактов с фильтрацией.
// При неположительном значении Limit возвращаются все подходящие записи.
func (r *ContractRepository) List(ctx context.Context, filter repository.ContractFilter) ([]*domain.Contract, error) {
	whereClause, args := r.buildWhereClause(filter)
	orderClause := r.buildOrderClause(filter)

	limitOffset := ""
	if filter.Limit > 0 {
		limitOffset = fmt.Sprintf("LIMIT %d OFFSET %d", filter.Limit, filter.Offset)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM contracts
		%s
		%s
		%s
	`, contractColumns, whereClause, orderClause, limitOffset)

	contracts := []*domain.Contract{}
	err := r.db.DB.SelectContext(ctx, &contracts, query, args...)
	if err != nil {
		r.logger.Error("Failed to list contracts", err)
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}

	return contracts, nil
}

// Count возвращает количество контрактов с фильтрацией
func (r *ContractRepository) Count(ctx context.Context, filter repository.ContractFilter) (int64, error) {
	whereClause, args := r.buildWhereClause(filter)

	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM contracts
		%s
	`, whereClause)

	var count int64
	err := r.db.DB.GetContext(ctx, &count, query, args...)
	if err != nil {
		r.logger.Error("Failed to count contracts", err)
		return 0, fmt.Errorf("failed to count contracts: %w", err)
	}

	return count, nil
}

// GetByCounterparty возвращает контракты контрагента
func (r *ContractRepository) GetByCounterparty(ctx context.Context, counterpartyID string, filter repository.ContractFilter) ([]*domain.Contract, error) {
	filter.CounterpartyIDs = []string{counterpartyID}
	return r.List(ctx, filter)
}

// GetByManager возвращает контракты, закрепленные за менеджером
func (r *ContractRepository) GetByManager(ctx context.Context, managerID string, filter repository.ContractFilter) ([]*domain.Contract, error) {
	filter.ManagerID = &managerID
	return r.List(ctx, filter)
}

// CountByCounterparty возвращает количество контрактов контрагента
func (r *ContractRepository) CountByCounterparty(ctx context.Context, counterpartyID string) (int64, error) {
	return r.Count(ctx, repository.ContractFilter{CounterpartyIDs: []string{counterpartyID}})
}

// GetExpiring возвращает действующие контракты, срок которых истекает в ближайшие daysThreshold дней
func (r *ContractRepository) GetExpiring(ctx context.Context, daysThreshold int) ([]*domain.Contract, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM contracts
		WHERE status = $1
		  AND end_date > NOW()
		  AND end_date <= NOW() + make_interval(days => $2)
		ORDER BY end_date ASC
	`, contractColumns)

	contracts := []*domain.Contract{}
	err := r.db.DB.SelectContext(ctx, &contracts, query, domain.ContractStatusActive, daysThreshold)
	if err != nil {
		r.logger.Error("Failed to get expiring contracts", err, map[string]interface{}{
			"days_threshold": daysThreshold,
		})
		return nil, fmt.Errorf("failed to get expiring contracts: %w", err)
	}

	return contracts, nil
}

// GetExpired возвращает действующие контракты с уже истекшим сроком
func (r *ContractRepository) GetExpired(ctx context.Context) ([]*domain.Contract, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM contracts
		WHERE status = $1 AND end_date < NOW()
		ORDER BY end_date ASC
	`, contractColumns)

	contracts := []*domain.Contract{}
	err := r.db.DB.SelectContext(ctx, &contracts, query, domain.ContractStatusActive)
	if err != nil {
		r.logger.Error("Failed to get expired contracts", err)
		return nil, fmt.Errorf("failed to get expired contracts: %w", err)
	}

	return contracts, nil
}

// Вспомогательные функции

func (r *ContractRepository) buildWhereClause(filter repository.ContractFilter) (string, []interface{}) {
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

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			placeholders[i] = fmt.Sprintf("$%d", argIndex)
			args = append(args, status)
			argIndex++
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ", ")))
	}

	if len(filter.CounterpartyIDs) > 0 {
		placeholders := make([]string, len(filter.CounterpartyIDs))
		for i, id := range filter.CounterpartyIDs {
			placeholders[i] = fmt.Sprintf("$%d", argIndex)
			args = append(args, id)
			argIndex++
		}
		conditions = append(conditions, fmt.Sprintf("counterparty_id IN (%s)", strings.Join(placeholders, ", ")))
	}

	if filter.ManagerID != nil {
		conditions = append(conditions, fmt.Sprintf("manager_id = $%d", argIndex))
		args = append(args, *filter.ManagerID)
		argIndex++
	}

	if filter.CreatedBy != nil {
		conditions = append(conditions, fmt.Sprintf("created_by = $%d", argIndex))
		args = append(args, *filter.CreatedBy)
		argIndex++
	}

	if filter.EndBefore != nil {
		conditions = append(conditions, fmt.Sprintf("end_date <= $%d", argIndex))
		args = append(args, *filter.EndBefore)
		argIndex++
	}

	if filter.EndAfter != nil {
		conditions = append(conditions, fmt.Sprintf("end_date >= $%d", argIndex))
		args = append(args, *filter.EndAfter)
		argIndex++
	}

	if filter.SearchText != nil {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR number ILIKE $%d OR description ILIKE $%d)", argIndex, argIndex, argIndex))
		searchPattern := "%" + *filter.SearchText + "%"
		args = append(args, searchPattern)
		argIndex++
	}

	if len(conditions) > 0 {
		return "WHERE " + strings.Join(conditions, " AND "), args
	}
	return "", args
}

func (r *ContractRepository) buildOrderClause(filter repository.ContractFilter) string {
	if filter.OrderBy != nil {
		direction := "ASC"
		if filter.OrderDir != nil && strings.ToUpper(*filter.OrderDir) == "DESC" {
			direction = "DESC"
		}

		// Проверяем, что поле сортировки допустимо
		allowedFields := map[string]bool{
			"id":         true,
			"name":       true,
			"number":     true,
			"status":     true,
			"amount":     true,
			"start_date": true,
			"end_date":   true,
			"signed_at":  true,
			"created_at": true,
			"updated_at": true,
		}

		if allowedFields[*filter.OrderBy] {
			return fmt.Sprintf("ORDER BY %s %s", *filter.OrderBy, direction)
		}
	}

	// По умолчанию сортируем по дате создания
	return "ORDER BY created_at DESC"
}
