package sqlite

// Schema defines the SQL statements to create database tables. Versioned
// tables share the same bitemporal column block and are append-only: rows
// are inserted and their valid_to/system_to closed, never deleted.
const Schema = `
CREATE TABLE IF NOT EXISTS organizations (
    version_id TEXT PRIMARY KEY,
    id TEXT NOT NULL,
    previous_version_id TEXT,
    valid_from TIMESTAMP NOT NULL,
    valid_to TIMESTAMP NOT NULL,
    system_from TIMESTAMP NOT NULL,
    system_to TIMESTAMP NOT NULL,
    is_deleted INTEGER NOT NULL DEFAULT 0,
    deleted_at TIMESTAMP,
    deleted_by TEXT,
    changed_by TEXT NOT NULL,
    change_reason TEXT,
    name TEXT NOT NULL,
    fiscal_year_start_month INTEGER NOT NULL,
    fund_balance_account_id TEXT
);

CREATE INDEX IF NOT EXISTS idx_organizations_id ON organizations(id, system_to);

CREATE TABLE IF NOT EXISTS contacts (
    version_id TEXT PRIMARY KEY,
    id TEXT NOT NULL,
    previous_version_id TEXT,
    valid_from TIMESTAMP NOT NULL,
    valid_to TIMESTAMP NOT NULL,
    system_from TIMESTAMP NOT NULL,
    system_to TIMESTAMP NOT NULL,
    is_deleted INTEGER NOT NULL DEFAULT 0,
    deleted_at TIMESTAMP,
    deleted_by TEXT,
    changed_by TEXT NOT NULL,
    change_reason TEXT,
    organization_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    name TEXT NOT NULL,
    email TEXT,
    phone TEXT,
    notes TEXT
);

CREATE INDEX IF NOT EXISTS idx_contacts_id ON contacts(id, system_to);
CREATE INDEX IF NOT EXISTS idx_contacts_org ON contacts(organization_id, system_to);

CREATE TABLE IF NOT EXISTS memberships (
    version_id TEXT PRIMARY KEY,
    id TEXT NOT NULL,
    previous_version_id TEXT,
    valid_from TIMESTAMP NOT NULL,
    valid_to TIMESTAMP NOT NULL,
    system_from TIMESTAMP NOT NULL,
    system_to TIMESTAMP NOT NULL,
    is_deleted INTEGER NOT NULL DEFAULT 0,
    deleted_at TIMESTAMP,
    deleted_by TEXT,
    changed_by TEXT NOT NULL,
    change_reason TEXT,
    organization_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    role TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_memberships_id ON memberships(id, system_to);
CREATE INDEX IF NOT EXISTS idx_memberships_org_user ON memberships(organization_id, user_id, system_to);

CREATE TABLE IF NOT EXISTS accounts (
    version_id TEXT PRIMARY KEY,
    id TEXT NOT NULL,
    previous_version_id TEXT,
    valid_from TIMESTAMP NOT NULL,
    valid_to TIMESTAMP NOT NULL,
    system_from TIMESTAMP NOT NULL,
    system_to TIMESTAMP NOT NULL,
    is_deleted INTEGER NOT NULL DEFAULT 0,
    deleted_at TIMESTAMP,
    deleted_by TEXT,
    changed_by TEXT NOT NULL,
    change_reason TEXT,
    organization_id TEXT NOT NULL,
    code TEXT NOT NULL,
    name TEXT NOT NULL,
    type TEXT NOT NULL,
    parent_account_id TEXT,
    current_balance TEXT NOT NULL,
    is_active INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_accounts_id ON accounts(id, system_to);
CREATE INDEX IF NOT EXISTS idx_accounts_org_code ON accounts(organization_id, code, system_to);
CREATE INDEX IF NOT EXISTS idx_accounts_org_type ON accounts(organization_id, type, system_to);

CREATE TABLE IF NOT EXISTS transactions (
    version_id TEXT PRIMARY KEY,
    id TEXT NOT NULL,
    previous_version_id TEXT,
    valid_from TIMESTAMP NOT NULL,
    valid_to TIMESTAMP NOT NULL,
    system_from TIMESTAMP NOT NULL,
    system_to TIMESTAMP NOT NULL,
    is_deleted INTEGER NOT NULL DEFAULT 0,
    deleted_at TIMESTAMP,
    deleted_by TEXT,
    changed_by TEXT NOT NULL,
    change_reason TEXT,
    organization_id TEXT NOT NULL,
    transaction_date TIMESTAMP NOT NULL,
    type TEXT NOT NULL,
    amount TEXT NOT NULL,
    debit_account_id TEXT NOT NULL,
    credit_account_id TEXT NOT NULL,
    description TEXT NOT NULL,
    reference_number TEXT,
    contact_id TEXT,
    reconciled INTEGER NOT NULL DEFAULT 0,
    is_voided INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_transactions_id ON transactions(id, system_to);
CREATE INDEX IF NOT EXISTS idx_transactions_org_date ON transactions(organization_id, transaction_date, system_to);
CREATE INDEX IF NOT EXISTS idx_transactions_accounts ON transactions(debit_account_id, credit_account_id, system_to);

CREATE TABLE IF NOT EXISTS fiscal_periods (
    version_id TEXT PRIMARY KEY,
    id TEXT NOT NULL,
    previous_version_id TEXT,
    valid_from TIMESTAMP NOT NULL,
    valid_to TIMESTAMP NOT NULL,
    system_from TIMESTAMP NOT NULL,
    system_to TIMESTAMP NOT NULL,
    is_deleted INTEGER NOT NULL DEFAULT 0,
    deleted_at TIMESTAMP,
    deleted_by TEXT,
    changed_by TEXT NOT NULL,
    change_reason TEXT,
    organization_id TEXT NOT NULL,
    name TEXT NOT NULL,
    start_date TIMESTAMP NOT NULL,
    end_date TIMESTAMP NOT NULL,
    status TEXT NOT NULL,
    closing_transaction_ids TEXT NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS idx_fiscal_periods_id ON fiscal_periods(id, system_to);
CREATE INDEX IF NOT EXISTS idx_fiscal_periods_org ON fiscal_periods(organization_id, start_date, system_to);

-- Reconciliation working state: mutated directly, not versioned.
CREATE TABLE IF NOT EXISTS bank_accounts (
    id TEXT PRIMARY KEY,
    organization_id TEXT NOT NULL,
    name TEXT NOT NULL,
    ledger_account_id TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bank_accounts_org ON bank_accounts(organization_id);

CREATE TABLE IF NOT EXISTS bank_statements (
    id TEXT PRIMARY KEY,
    organization_id TEXT NOT NULL,
    bank_account_id TEXT NOT NULL REFERENCES bank_accounts(id),
    period_start TIMESTAMP NOT NULL,
    period_end TIMESTAMP NOT NULL,
    status TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    completed_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_bank_statements_org ON bank_statements(organization_id);

CREATE TABLE IF NOT EXISTS statement_lines (
    id TEXT PRIMARY KEY,
    bank_statement_id TEXT NOT NULL REFERENCES bank_statements(id),
    transaction_date TIMESTAMP NOT NULL,
    description TEXT NOT NULL,
    reference_number TEXT,
    amount TEXT NOT NULL,
    status TEXT NOT NULL,
    match_confidence TEXT NOT NULL,
    notes TEXT
);

CREATE INDEX IF NOT EXISTS idx_statement_lines_statement ON statement_lines(bank_statement_id, status);

CREATE TABLE IF NOT EXISTS matches (
    id TEXT PRIMARY KEY,
    line_id TEXT NOT NULL REFERENCES statement_lines(id),
    transaction_id TEXT NOT NULL UNIQUE,
    amount TEXT NOT NULL,
    confidence TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_matches_line ON matches(line_id);
`
