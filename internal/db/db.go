package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/viper"
)

// Pool represents a connection pool to the PostgreSQL database
var Pool *pgxpool.Pool

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateMember is returned when a member is already assigned to a project
var ErrDuplicateMember = errors.New("member is already assigned to this project")

// Initialize creates and initializes the PostgreSQL connection pool
func Initialize() {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable search_path=%s",
		viper.GetString("PostgreSQL.Host"),
		viper.GetString("PostgreSQL.Port"),
		viper.GetString("PostgreSQL.User"),
		viper.GetString("PostgreSQL.Password"),
		viper.GetString("PostgreSQL.DBName"),
		viper.GetString("PostgreSQL.Schema"),
	)

	var connectConf, err = pgxpool.ParseConfig(connStr)
	if err != nil {
		log.Fatalf("Unable to parse PostgreSQL config: %v", err)
	}

	connectConf.MaxConns = int32(viper.GetInt("PostgreSQL.PoolMaxConns"))
	connectConf.HealthCheckPeriod = 15 * time.Second
	connectConf.ConnConfig.ConnectTimeout = 5 * time.Second

	// Set timezone to PGX runtime
	if s := os.Getenv("TZ"); s != "" {
		connectConf.ConnConfig.RuntimeParams["timezone"] = s
	}

	Pool, err = pgxpool.NewWithConfig(context.Background(), connectConf)
	if err != nil {
		log.Fatalf("Unable to create PostgreSQL connection pool: %v", err)
	}

	log.Println("Connected to PostgreSQL successfully")
}

// Migrate sets up the database schema
func Migrate() {
	log.Println("Starting database migration...")

	usersSchema := `
    CREATE TABLE IF NOT EXISTS users (
        id SERIAL PRIMARY KEY,
        name VARCHAR(255) NOT NULL,
        email VARCHAR(255) NOT NULL UNIQUE,
        password VARCHAR(60) NOT NULL,
        created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
    );
    CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);`
	_, err := Pool.Exec(context.Background(), usersSchema)
	if err != nil {
		log.Fatalf("Failed to migrate users table: %v", err)
	}

	projectsSchema := `
    CREATE TABLE IF NOT EXISTS projects (
        id SERIAL PRIMARY KEY,
        project_name VARCHAR(255) NOT NULL,
        project_admin_id INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
        project_admin_name VARCHAR(255) NOT NULL,
        start_date DATE NOT NULL,
        end_date DATE,
        created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
    );
    CREATE INDEX IF NOT EXISTS idx_projects_admin_id ON projects(project_admin_id);`
	_, err = Pool.Exec(context.Background(), projectsSchema)
	if err != nil {
		log.Fatalf("Failed to migrate projects table: %v", err)
	}

	membersSchema := `
    CREATE TABLE IF NOT EXISTS members (
        project_id INT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
        member_id INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
        member_name VARCHAR(255) NOT NULL,
        project_name VARCHAR(255) NOT NULL,
        member_role VARCHAR(50) NOT NULL DEFAULT 'member',
        created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
        PRIMARY KEY (project_id, member_id)
    );
    CREATE INDEX IF NOT EXISTS idx_members_member_id ON members(member_id);`
	_, err = Pool.Exec(context.Background(), membersSchema)
	if err != nil {
		log.Fatalf("Failed to migrate members table: %v", err)
	}

	expensesSchema := `
    CREATE TABLE IF NOT EXISTS expenses (
        id SERIAL PRIMARY KEY,
        project_id INT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
        member_id INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
        member_name VARCHAR(255) NOT NULL,
        project_name VARCHAR(255) NOT NULL,
        expense_name VARCHAR(255) NOT NULL,
        expense_type VARCHAR(100) NOT NULL,
        amount BIGINT NOT NULL CHECK (amount >= 0),
        expense_date DATE,
        expense_detail TEXT,
        expense_proof TEXT,
        expense_status VARCHAR(50) NOT NULL DEFAULT 'Pending Approval',
        created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
    );
    CREATE INDEX IF NOT EXISTS idx_expenses_project_id ON expenses(project_id);
    CREATE INDEX IF NOT EXISTS idx_expenses_member_id ON expenses(member_id);
    CREATE INDEX IF NOT EXISTS idx_expenses_status ON expenses(expense_status);`
	_, err = Pool.Exec(context.Background(), expensesSchema)
	if err != nil {
		log.Fatalf("Failed to migrate expenses table: %v", err)
	}

	log.Println("Database migration completed successfully")
}

// Store wraps the connection pool with the query set used by the API server
type Store struct {
	pool *pgxpool.Pool
}

// NewStore returns a Store backed by the package connection pool
func NewStore() *Store {
	return &Store{pool: Pool}
}
