package websocket

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LocationSink receives driver positions reported over the socket so the
// last-known position survives the connection.
type LocationSink interface {
	SetDriverLocation(ctx context.Context, driverID primitive.ObjectID, latitude, longitude float64) error
}

type Handler struct {
	hub       *Hub
	locations LocationSink
}

func NewHandler(locations LocationSink) *Handler {
	hub := NewHub()
	go hub.Run()

	return &Handler{
		hub:       hub,
		locations: locations,
	}
}

func (h *Handler) HandleWebSocket(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	userType, exists := c.Get("user_type")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User type not found"})
		return
	}

	userObjectID, ok := userID.(primitive.ObjectID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	userTypeStr, ok := userType.(string)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user type"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := NewClient(h.hub, h, conn, userObjectID, userTypeStr)
	h.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// handleLocationUpdate persists the driver's position and relays it to the
// ride room named in the message.
func (h *Handler) handleLocationUpdate(c *Client, msg Message) {
	latitude, latOK := msg.Data["latitude"].(float64)
	longitude, lngOK := msg.Data["longitude"].(float64)
	if !latOK || !lngOK {
		return
	}

	if h.locations != nil {
		if err := h.locations.SetDriverLocation(context.Background(), c.UserID, latitude, longitude); err != nil {
			log.Printf("Failed to store driver location: %v", err)
		}
	}

	if rideID, ok := msg.Data["ride_id"].(string); ok {
		msg.RoomID = "ride_" + rideID
		h.hub.sendToRoom(msg.RoomID, msg)
	}
}

func (h *Handler) SendRideUpdate(rideID primitive.ObjectID, updateType string, data map[string]interface{}) {
	message := Message{
		Type:      updateType,
		RoomID:    "ride_" + rideID.Hex(),
		Timestamp: getCurrentTimestamp(),
		Data:      data,
	}

	h.hub.SendRideUpdate(rideID, message)
}

func (h *Handler) SendUserNotification(userID primitive.ObjectID, notificationType string, data map[string]interface{}) {
	message := Message{
		Type:      notificationType,
		UserID:    userID,
		Timestamp: getCurrentTimestamp(),
		Data:      data,
	}

	h.hub.SendToUser(userID, message)
}
