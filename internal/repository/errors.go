package repository

import "errors"

// ErrEventNotFound は指定ユーザーの所有として該当イベント行が存在しないことを示す。
// 他ユーザーの行が存在する場合も同じエラーになる（所有権の漏えい防止）。
var ErrEventNotFound = errors.New("event not found")

// ErrMenuItemNotFound は指定ユーザーの所有として該当メニュー項目が存在しないことを示す。
var ErrMenuItemNotFound = errors.New("menu item not found")
