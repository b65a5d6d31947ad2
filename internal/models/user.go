// Package models содержит доменные структуры: пользователи закрытого канала,
// их подписки и платежи, а также сообщения очереди уведомлений.
package models

import "time"

// User представляет пользователя закрытого канала.
// Идентификатор совпадает с идентификатором пользователя в мессенджере.
// TrialStart выставляется не более одного раза за всю жизнь записи:
// повторная активация пробного периода запрещена.
type User struct {
	ID               int64      // Идентификатор пользователя
	Username         string     // Имя пользователя в мессенджере
	FullName         string     // Отображаемое имя
	RegistrationDate time.Time  // Дата первого обращения
	TrialStart       *time.Time // Начало пробного периода, nil если не активировался
	Banned           bool       // Признак бана в закрытом канале
}
