package postgres

import "fmt"

// Migration — одна SQL-миграция.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Каналы NOTIFY, которые шлют триггеры.
const (
	ChannelNewDriver    = "new_driver"
	ChannelUserApproved = "user_approved"
)

const migrationLockKey int64 = 0x7465616d687562 // "teamhub"

// Migrations возвращает миграции по возрастанию версии.
// SQL встроен в код для упрощения деплоя.
func Migrations() []Migration {
	return []Migration{
		{1, "users", migration001Users},
		{2, "locations", migration002Locations},
		{3, "orders", migration003Orders},
		{4, "notify_triggers", migration004NotifyTriggers},
		{5, "admin_actions", migration005AdminActions},
	}
}

var migration001Users = `
CREATE TABLE IF NOT EXISTS users (
    user_id BIGINT PRIMARY KEY,
    full_name VARCHAR(255),
    phone VARCHAR(32),
    status VARCHAR(16) NOT NULL DEFAULT 'pending'
        CHECK (status IN ('pending', 'active', 'suspended')),
    language VARCHAR(8) NOT NULL DEFAULT 'en',
    rating_score DOUBLE PRECISION NOT NULL DEFAULT 0.75,
    rating_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
    rating_updated_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    last_active_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_users_status ON users(status);
CREATE INDEX IF NOT EXISTS idx_users_last_active_at ON users(last_active_at);
`

var migration002Locations = `
CREATE TABLE IF NOT EXISTS locations (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT UNIQUE NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
    state VARCHAR(64),
    city VARCHAR(128),
    latitude DOUBLE PRECISION,
    longitude DOUBLE PRECISION,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

var migration003Orders = `
CREATE TABLE IF NOT EXISTS orders (
    id BIGSERIAL PRIMARY KEY,
    driver_id BIGINT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
    admin_id BIGINT NOT NULL,
    route_from VARCHAR(255) NOT NULL DEFAULT '',
    route_to VARCHAR(255) NOT NULL DEFAULT '',
    is_good BOOLEAN NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_orders_driver_id ON orders(driver_id);
`

var migration005AdminActions = `
CREATE TABLE IF NOT EXISTS admin_actions (
    id BIGSERIAL PRIMARY KEY,
    admin_id BIGINT NOT NULL,
    action VARCHAR(32) NOT NULL,
    target_id BIGINT NOT NULL,
    details TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_admin_actions_created_at ON admin_actions(created_at DESC);
`

// Payload обоих уведомлений — user_id строкой.
var migration004NotifyTriggers = fmt.Sprintf(`
CREATE OR REPLACE FUNCTION notify_new_driver() RETURNS trigger AS $$
BEGIN
    PERFORM pg_notify('%[1]s', NEW.user_id::text);
    RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS trg_new_driver ON users;
CREATE TRIGGER trg_new_driver
    AFTER INSERT ON users
    FOR EACH ROW EXECUTE FUNCTION notify_new_driver();

CREATE OR REPLACE FUNCTION notify_user_approved() RETURNS trigger AS $$
BEGIN
    IF NEW.status = 'active' AND OLD.status IS DISTINCT FROM 'active' THEN
        PERFORM pg_notify('%[2]s', NEW.user_id::text);
    END IF;
    RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS trg_user_approved ON users;
CREATE TRIGGER trg_user_approved
    AFTER UPDATE OF status ON users
    FOR EACH ROW EXECUTE FUNCTION notify_user_approved();
`, ChannelNewDriver, ChannelUserApproved)
