package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/custbalance/internal/domain"
	"github.com/iho/custbalance/internal/infrastructure/postgres/generated"
)

// CustomerRepository implements usecase.CustomerRepository.
type CustomerRepository struct {
	queries *generated.Queries
}

// NewCustomerRepository creates a new CustomerRepository.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return newCustomerRepositoryWithDB(pool)
}

func newCustomerRepositoryWithDB(db generated.DBTX) *CustomerRepository {
	return &CustomerRepository{queries: generated.New(db)}
}

// Create creates a new customer.
func (r *CustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	_, err := r.queries.CreateCustomer(ctx, generated.CreateCustomerParams{
		ID:        customer.ID,
		Name:      customer.Name,
		CreatedAt: timeToPgTimestamptz(customer.CreatedAt),
	})

	return err
}

// GetByID retrieves a customer by ID.
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	row, err := r.queries.GetCustomerByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCustomerNotFound
		}

		return nil, err
	}

	return rowToCustomer(row), nil
}

// List retrieves customers whose name matches an ILIKE pattern.
func (r *CustomerRepository) List(ctx context.Context, namePattern string) ([]*domain.Customer, error) {
	rows, err := r.queries.ListCustomersByName(ctx, namePattern)
	if err != nil {
		return nil, err
	}

	customers := make([]*domain.Customer, 0, len(rows))
	for _, row := range rows {
		customers = append(customers, rowToCustomer(row))
	}

	return customers, nil
}

func rowToCustomer(row generated.Customer) *domain.Customer {
	return &domain.Customer{
		ID:        row.ID,
		Name:      row.Name,
		CreatedAt: timestamptzToTime(row.CreatedAt),
	}
}
