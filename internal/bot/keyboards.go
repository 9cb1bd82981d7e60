package bot

import (
	"fmt"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// Button — inline-кнопка до сборки в клавиатуру.
type Button struct {
	Text string
	Data string
}

// PerPage — сколько кнопок-элементов на одной странице меню.
const PerPage = 10

// maxCallbackData — лимит Telegram на callback_data в байтах.
const maxCallbackData = 64

// Paginate раскладывает страницу page по columns кнопок в ряд и добавляет
// ряд навигации "⬅️ ➡️" с callback "<pagePrefix><номер>".
// Возвращает ряды и число страниц.
func Paginate(items []Button, page, columns int, pagePrefix string) ([][]telego.InlineKeyboardButton, int) {
	if columns <= 0 {
		columns = 1
	}
	total := (len(items) + PerPage - 1) / PerPage
	if total == 0 {
		total = 1
	}
	if page < 0 {
		page = 0
	}
	if page >= total {
		page = total - 1
	}

	start := page * PerPage
	end := min(start+PerPage, len(items))

	var rows [][]telego.InlineKeyboardButton
	var row []telego.InlineKeyboardButton
	for _, it := range items[start:end] {
		row = append(row, button(it))
		if len(row) == columns {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	var nav []telego.InlineKeyboardButton
	if page > 0 {
		nav = append(nav, button(Button{"⬅️", fmt.Sprintf("%s%d", pagePrefix, page-1)}))
	}
	if page < total-1 {
		nav = append(nav, button(Button{"➡️", fmt.Sprintf("%s%d", pagePrefix, page+1)}))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	return rows, total
}

// Row — один ряд кнопок.
func Row(items ...Button) []telego.InlineKeyboardButton {
	row := make([]telego.InlineKeyboardButton, 0, len(items))
	for _, it := range items {
		row = append(row, button(it))
	}
	return row
}

// Inline собирает клавиатуру из рядов.
func Inline(rows ...[]telego.InlineKeyboardButton) *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(rows...)
}

func button(it Button) telego.InlineKeyboardButton {
	data := it.Data
	if len(data) > maxCallbackData {
		data = data[:maxCallbackData]
	}
	return tu.InlineKeyboardButton(it.Text).WithCallbackData(data)
}
