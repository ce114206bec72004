package locator

// 検索コマンドパス
const (
	PathSecretPrint  = "/ppp/secret/print"
	PathActivePrint  = "/ppp/active/print"
	PathProfilePrint = "/ppp/profile/print"
	PathPoolPrint    = "/ip/pool/print"
	PathLeasePrint   = "/ip/dhcp-server/lease/print"
)

// レコードのフィールド名
const (
	FieldID            = ".id"
	FieldName          = "name"
	FieldProfile       = "profile"
	FieldService       = "service"
	FieldDisabled      = "disabled"
	FieldComment       = "comment"
	FieldAddress       = "address"
	FieldCallerID      = "caller-id"
	FieldSessionID     = "session-id"
	FieldUptime        = "uptime"
	FieldMACAddress    = "mac-address"
	FieldActiveAddress = "active-address"
	FieldServer        = "server"
)
