package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/gymdesk/internal/model"
)

// wrapDBError はPostgreSQLが報告したエラーをmodel.ProviderErrorに変換してラップする。
// 接続断などドライバ外のエラーはそのままラップする。
func wrapDBError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("%s: %w", op, &model.ProviderError{
			Code:    string(pqErr.Code),
			Message: pqErr.Message,
		})
	}
	return fmt.Errorf("%s: %w", op, err)
}

// rowsAffected はExecの結果から1行以上変更されたかを返す。
func rowsAffected(op string, result interface{ RowsAffected() (int64, error) }) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: failed to get rows affected: %w", op, err)
	}
	return n > 0, nil
}
