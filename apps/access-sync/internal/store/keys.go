package store

// Valkeyキープレフィックス
const (
	KeyPrefixLockUser = "lock:user:" // 加入者単位の操作ロック
	KeyPrefixLockMAC  = "lock:mac:"  // MACアドレス単位の操作ロック
)

// UserLockKey は加入者ロックのキーを返す。
func UserLockKey(username string) string {
	return KeyPrefixLockUser + username
}

// MACLockKey はMACアドレスロックのキーを返す。
func MACLockKey(mac string) string {
	return KeyPrefixLockMAC + mac
}
