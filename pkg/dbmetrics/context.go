package dbmetrics

import "context"

// txContextKey приватный ключ контекста для активной транзакции
type txContextKey struct{}

// WithExecutor кладет активную транзакцию в контекст.
// Используется transaction manager'ами, чтобы репозитории выполняли
// запросы внутри той же транзакции без явной передачи *sql.Tx.
func WithExecutor(ctx context.Context, tx TxExecutor) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// GetExecutor возвращает транзакцию из контекста, если она там есть,
// иначе переданный executor по умолчанию
func GetExecutor(ctx context.Context, def DBExecutor) DBExecutor {
	if tx, ok := ctx.Value(txContextKey{}).(TxExecutor); ok {
		return tx
	}
	return def
}

// IsInTransaction возвращает true, если в контексте есть активная транзакция
func IsInTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txContextKey{}).(TxExecutor)
	return ok
}
