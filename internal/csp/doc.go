// Package csp строит заголовки Content-Security-Policy и
// Content-Security-Policy-Report-Only из декларативных политик и выдаёт
// nonce запроса по требованию.
//
// Nonce создаётся лениво: только если что-то в обработке запроса вызвало
// RequestNonce (обычно шаблон). Если nonce не понадобился, источник Nonce
// просто не попадает в заголовок.
//
// Ответы с nonce нельзя кэшировать целиком и отдавать другим запросам:
// повторно отданный nonce перестаёт быть секретом. Этот пакет такое
// кэширование не запрещает, это ограничение развёртывания.
package csp
