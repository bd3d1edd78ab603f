package repository

import "errors"

// 対象が存在しない（usecaseでNotFoundへ変換）
var ErrNotFound = errors.New("not found")

// 一意制約違反（username/emailの重複など）
var ErrDuplicate = errors.New("duplicate key")
