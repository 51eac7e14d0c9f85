package routes

import (
	"encoding/json"
	"fmt"
	"time"

	"homemeal-server/models"
	"homemeal-server/services"
	"homemeal-server/storage"
	"homemeal-server/utils"

	"github.com/kataras/iris/v12"
)

func GetNotifications(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var notifications []models.Notification
	if err := storage.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&notifications).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(notifications)
}

func MarkNotificationRead(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	id := ctx.Params().GetUintDefault("id", 0)

	var notification models.Notification
	if err := storage.DB.First(&notification, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Notification not found", ctx)
		return
	}
	if notification.UserID != userID {
		utils.CreateError(iris.StatusUnauthorized, "Unauthorized", "Not authorized", ctx)
		return
	}

	now := time.Now()
	notification.IsRead = true
	notification.ReadAt = &now
	if err := storage.DB.Save(&notification).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(&notification)
}

// StreamNotifications pushes booking events to the client over SSE. The
// stream stays open until the client disconnects.
func StreamNotifications(ctx iris.Context) {
	ctx.ContentType("text/event-stream")
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")

	w := ctx.ResponseWriter()

	// Open the stream before any event arrives.
	fmt.Fprint(w, ":ok\n\n")
	w.Flush()

	events := services.Hub.Subscribe()
	defer services.Hub.Unsubscribe(events)

	done := ctx.Request().Context().Done()
	for {
		select {
		case <-done:
			return
		case notification := <-events:
			payload, err := json.Marshal(notification)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			w.Flush()
		}
	}
}
