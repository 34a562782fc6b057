package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Коды выхода storectl.
const (
	ExitSuccess      = 0
	ExitRejected     = 1 // бизнес-отказ: нет остатка, пустая корзина и т.п.
	ExitCommandError = 2 // неверные аргументы или недоступное хранилище
)

// ExitError ошибка с кодом выхода процесса.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError создаёт ExitError без вложенной ошибки.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError оборачивает err кодом выхода.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode извлекает код выхода; для прочих ошибок — ExitCommandError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// rejected превращает отказ с кодом причины в ошибку выхода.
func rejected(reason domain.Reason) error {
	return NewExitError(ExitRejected, "rejected: "+string(reason))
}

// OutputFormatter печатает результат как текст или как JSON-конверт.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Response JSON-конверт ответа команды.
type Response struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}

// Print выводит data. В текстовом режиме вызывается text с табличным writer.
func (f *OutputFormatter) Print(status string, data any, text func(w io.Writer)) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(Response{Status: status, Data: data})
	}
	tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	text(tw)
	return tw.Flush()
}
