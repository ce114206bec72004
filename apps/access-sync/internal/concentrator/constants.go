package concentrator

// HTTPヘッダ名
const (
	HeaderContentType = "Content-Type"
	HeaderAccept      = "Accept"
)

// Content-Type
const (
	ContentTypeJSON = "application/json"
)

// ProbePath はログイン確認に使うコマンドパス。
const ProbePath = "/system/identity/print"

// identityField は機器識別名のフィールド名。
const identityField = "name"
