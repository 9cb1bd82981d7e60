// Package admin реализует бота операторов: справочник, поиск, оценки,
// одобрение и удаление водителей. Работает только в группе операторов.
// models.go описывает журнал действий и состояние диалога.
package admin

import "time"

// Action — тип действия оператора для журнала.
type Action string

const (
	ActionApprove Action = "approve"
	ActionRate    Action = "rate"
	ActionSuspend Action = "suspend"
)

// AuditEntry — запись журнала действий операторов.
type AuditEntry struct {
	ID        int64     `db:"id"`
	AdminID   int64     `db:"admin_id"`
	Action    Action    `db:"action"`
	TargetID  int64     `db:"target_id"`
	Details   string    `db:"details"`
	CreatedAt time.Time `db:"created_at"`
}

// AdminState — состояние диалога с оператором (конечный автомат).
// Нужно для подтверждения удаления: подтвердить может только тот,
// кто начал, и только в течение stateTTL.
type AdminState struct {
	State     string    // Текущее состояние ("", "confirm_delete")
	TargetID  int64     // Водитель, над которым действие
	ExpiresAt time.Time // Когда состояние истекает
}

// Возможные состояния админ-диалога
const (
	StateNone          = ""               // Нет активного состояния
	StateConfirmDelete = "confirm_delete" // Ждём подтверждения удаления
)

const stateTTL = 5 * time.Minute
