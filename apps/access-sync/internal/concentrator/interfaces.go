package concentrator

import "context"

// Executor はコンセントレータへのコマンド実行インターフェースを定義する
type Executor interface {
	// Execute はコマンドを実行し、結果レコードを順序通りに返す
	Execute(ctx context.Context, path string, params Params) ([]Record, error)
}

// Conn は1呼び出し専用の認証済み接続を表す
type Conn interface {
	Executor
	// Release は接続を解放する
	Release()
}
