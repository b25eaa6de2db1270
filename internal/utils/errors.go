package utils

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v3"
)

// Доменные ошибки. Обработчики переводят их в HTTP статусы через RespondError.

// ValidationError - некорректные или отсутствующие входные данные
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Reason
	}
	return e.Reason
}

// ForbiddenError - у пользователя нет прав на операцию с сущностью.
// Причина не раскрывает существование чужих сущностей.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string { return e.Reason }

// InvalidStateError - операция недопустима для текущего статуса сущности
type InvalidStateError struct {
	Reason string
}

func (e *InvalidStateError) Error() string { return e.Reason }

// NotFoundError - сущность не найдена
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string { return e.Entity + " не найден" }

// RespondError переводит доменную ошибку в JSON-ответ с нужным статусом
func RespondError(c fiber.Ctx, err error) error {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		resp := fiber.Map{"error": validationErr.Reason}
		if validationErr.Field != "" {
			resp["field"] = validationErr.Field
		}
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	}

	var forbiddenErr *ForbiddenError
	if errors.As(err, &forbiddenErr) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": forbiddenErr.Reason})
	}

	var stateErr *InvalidStateError
	if errors.As(err, &stateErr) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": stateErr.Reason})
	}

	var notFoundErr *NotFoundError
	if errors.As(err, &notFoundErr) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": notFoundErr.Error()})
	}

	log.Printf("Внутренняя ошибка: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Внутренняя ошибка сервера"})
}
