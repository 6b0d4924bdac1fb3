package migrations

import (
	"database/sql"

	"github.com/lopezator/migrator"
)

func Up(db *sql.DB) error {
	m, err := migrator.New(
		migrator.Migrations(
			&migrator.MigrationNoTx{
				Name: "Create users table",
				Func: createUsersTable,
			},
			&migrator.MigrationNoTx{
				Name: "Create tokens table",
				Func: createTokensTable,
			},
			&migrator.MigrationNoTx{
				Name: "Create wallets table",
				Func: createWalletsTable,
			},
			&migrator.MigrationNoTx{
				Name: "Create listings table",
				Func: createListingsTable,
			},
			&migrator.MigrationNoTx{
				Name: "Create transactions table",
				Func: createTransactionsTable,
			},
			&migrator.MigrationNoTx{
				Name: "Create webhook events table",
				Func: createWebhookEventsTable,
			},
			&migrator.MigrationNoTx{
				Name: "Add processed_at to webhook events",
				Func: addWebhookEventsProcessedAt,
			},
		),
	)
	if err != nil {
		return err
	}

	return m.Migrate(db)
}

func createUsersTable(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE users
(
    id            integer GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    email         varchar(254) NOT NULL UNIQUE,
    password_hash varchar(100) NOT NULL,
    created_at    timestamptz  NOT NULL DEFAULT now()
)
	`)

	return err
}

func createTokensTable(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE tokens
(
    id         integer GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    user_id    integer     NOT NULL REFERENCES users (id),
    token_hash char(64)    NOT NULL UNIQUE,
    created_at timestamptz NOT NULL DEFAULT now()
)
	`)

	return err
}

func createWalletsTable(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE wallets
(
    user_id           integer        PRIMARY KEY REFERENCES users (id),
    ledger_balance    numeric(20, 2) NOT NULL DEFAULT 0,
    available_balance numeric(20, 2) NOT NULL DEFAULT 0,
    currency          char(3)        NOT NULL,
    updated_at        timestamptz    NOT NULL DEFAULT now(),
    CHECK (available_balance >= 0),
    CHECK (available_balance <= ledger_balance)
)
	`)

	return err
}

func createListingsTable(db *sql.DB) error {
	if _, err := db.Exec("CREATE TYPE listing_status AS ENUM ('available', 'reserved', 'sold')"); err != nil {
		return err
	}

	_, err := db.Exec(`
CREATE TABLE listings
(
    id         integer GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    seller_id  integer        NOT NULL REFERENCES users (id),
    title      varchar(200)   NOT NULL,
    price      numeric(20, 2) NOT NULL,
    CHECK (price > 0),
    currency   char(3)        NOT NULL,
    status     listing_status NOT NULL DEFAULT 'available',
    created_at timestamptz    NOT NULL DEFAULT now()
)
	`)

	return err
}

func createTransactionsTable(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TYPE tx_type AS ENUM ('payment', 'charge', 'transfer_out', 'transfer_in', 'deposit', 'withdraw')
	`); err != nil {
		return err
	}

	if _, err := db.Exec("CREATE TYPE tx_status AS ENUM ('pending', 'completed', 'failed', 'locked')"); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE transactions
(
    id           integer GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    reference    varchar(100)   NOT NULL UNIQUE,
    type         tx_type        NOT NULL,
    status       tx_status      NOT NULL,
    amount       numeric(20, 2) NOT NULL,
    CHECK (amount > 0),
    fee          numeric(20, 2) NOT NULL DEFAULT 0,
    CHECK (fee >= 0 AND fee <= amount),
    currency     char(3)        NOT NULL,
    sender_id    integer REFERENCES users (id),
    recipient_id integer REFERENCES users (id),
    listing_id   integer REFERENCES listings (id),
    gateway      varchar(32),
    created_at   timestamptz    NOT NULL DEFAULT now(),
    updated_at   timestamptz    NOT NULL DEFAULT now()
)
	`); err != nil {
		return err
	}

	if _, err := db.Exec("CREATE INDEX transactions_pending_idx ON transactions (status) WHERE status = 'pending'"); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE FUNCTION check_status_transition() RETURNS trigger AS
$$
BEGIN
    IF OLD.status = NEW.status THEN
        RETURN NEW;
    END IF;

    IF OLD.status IN ('completed', 'failed') OR NEW.status = 'pending' THEN
        RAISE 'Invalid status transition % -> %', OLD.status, NEW.status USING ERRCODE = '23514';
    END IF;

    RETURN NEW;
END;
$$ LANGUAGE plpgsql
	`); err != nil {
		return err
	}

	_, err := db.Exec(`
CREATE TRIGGER check_status_transition
    BEFORE UPDATE OF status
    ON transactions
    FOR EACH ROW
EXECUTE FUNCTION check_status_transition()
	`)

	return err
}

func createWebhookEventsTable(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE webhook_events
(
    id          integer GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    gateway     varchar(32)  NOT NULL,
    event_id    varchar(100) NOT NULL,
    reference   varchar(100) NOT NULL,
    payload     jsonb        NOT NULL,
    received_at timestamptz  NOT NULL DEFAULT now(),
    UNIQUE (gateway, event_id)
)
	`)

	return err
}

func addWebhookEventsProcessedAt(db *sql.DB) error {
	_, err := db.Exec(`ALTER TABLE webhook_events ADD COLUMN processed_at timestamptz`)

	return err
}
