package routes

import (
	"poolride/internal/handlers"
	"poolride/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRideRoutes sets up ride and booking routes
func SetupRideRoutes(r *gin.RouterGroup, rideHandler *handlers.RideHandler, bookingHandler *handlers.BookingHandler, jwtSecret string) {
	rides := r.Group("/rides")
	rides.Use(middleware.AuthRequired(jwtSecret))
	{
		rides.GET("/", rideHandler.ListUpcomingRides)
		rides.GET("/:id", rideHandler.GetRide)
		rides.GET("/drivers/:driver_id/location", rideHandler.GetDriverLocation)
	}

	driverRides := r.Group("/rides")
	driverRides.Use(middleware.AuthRequired(jwtSecret), middleware.DriverRequired())
	{
		driverRides.POST("/", rideHandler.CreateRide)
		driverRides.GET("/mine", rideHandler.GetMyRides)
		driverRides.PUT("/:id/start", rideHandler.StartRide)
		driverRides.PUT("/:id/complete", rideHandler.CompleteRide)
		driverRides.PUT("/:id/cancel", rideHandler.CancelRide)
	}

	bookings := r.Group("/bookings")
	bookings.Use(middleware.AuthRequired(jwtSecret))
	{
		bookings.POST("/", bookingHandler.CreateBooking)
		bookings.GET("/", bookingHandler.GetMyBookings)
		bookings.GET("/:id", bookingHandler.GetBooking)
		bookings.PUT("/:id/cancel", bookingHandler.CancelBooking)
	}
}
