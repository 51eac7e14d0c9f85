package routes

import (
	"sort"
	"strings"

	"homemeal-server/models"
	"homemeal-server/services"
	"homemeal-server/storage"
	"homemeal-server/utils"

	"github.com/kataras/iris/v12"
	"golang.org/x/crypto/bcrypt"
)

func Register(ctx iris.Context) {
	var userInput RegisterUserInput
	err := ctx.ReadJSON(&userInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if !utils.ValidateContactNumber(userInput.ContactNumber) {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid contact number.", ctx)
		return
	}

	// Hosts must provide a payout account
	if userInput.Role == models.RoleHost &&
		(userInput.BankDetails == nil || userInput.BankDetails.AccountNumber == "" || userInput.BankDetails.BankName == "") {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Bank details are required for hosts.", ctx)
		return
	}

	var newUser models.User
	userExists, userExistsErr := getAndHandleUserExists(&newUser, userInput.Email)
	if userExistsErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if userExists {
		utils.CreateEmailAlreadyRegistered(ctx)
		return
	}

	hashedPassword, hashErr := hashAndSaltPassword(userInput.Password)
	if hashErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	newUser = models.User{
		Name:          userInput.Name,
		Email:         strings.ToLower(userInput.Email),
		Password:      hashedPassword,
		Age:           userInput.Age,
		ContactNumber: utils.NormalizeContactNumber(userInput.ContactNumber),
		Role:          userInput.Role,
	}
	if userInput.BankDetails != nil {
		newUser.BankDetails = models.Bank{
			AccountNumber: userInput.BankDetails.AccountNumber,
			BankName:      userInput.BankDetails.BankName,
		}
	}
	if userInput.Location != nil {
		newUser.Lat = userInput.Location.Lat
		newUser.Lng = userInput.Location.Lng
		newUser.Address = userInput.Location.Address
	}

	if createErr := storage.DB.Create(&newUser).Error; createErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	returnUser(newUser, ctx)
}

func Login(ctx iris.Context) {
	var userInput LoginUserInput
	err := ctx.ReadJSON(&userInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var existingUser models.User
	errorMsg := "Invalid credentials"
	userExists, userExistsErr := getAndHandleUserExists(&existingUser, userInput.Email)
	if userExistsErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if !userExists {
		utils.CreateError(iris.StatusBadRequest, "Credentials Error", errorMsg, ctx)
		return
	}

	passwordErr := bcrypt.CompareHashAndPassword([]byte(existingUser.Password), []byte(userInput.Password))
	if passwordErr != nil {
		utils.CreateError(iris.StatusBadRequest, "Credentials Error", errorMsg, ctx)
		return
	}

	returnUser(existingUser, ctx)
}

func GetCurrentUser(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var user models.User
	if err := storage.DB.First(&user, userID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "User not found", ctx)
		return
	}

	ctx.JSON(&user)
}

func UpdateProfile(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var user models.User
	if err := storage.DB.First(&user, userID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "User not found", ctx)
		return
	}

	var input UpdateProfileInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.Name != "" {
		user.Name = input.Name
	}
	if input.ContactNumber != "" {
		if !utils.ValidateContactNumber(input.ContactNumber) {
			utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid contact number.", ctx)
			return
		}
		user.ContactNumber = utils.NormalizeContactNumber(input.ContactNumber)
	}
	if input.BankDetails != nil {
		user.BankDetails = models.Bank{
			AccountNumber: input.BankDetails.AccountNumber,
			BankName:      input.BankDetails.BankName,
		}
	}
	if input.Location != nil {
		user.Lat = input.Location.Lat
		user.Lng = input.Location.Lng
		user.Address = input.Location.Address
	}

	if err := storage.DB.Save(&user).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(&user)
}

func GetNearbyHosts(ctx iris.Context) {
	longitude, lngErr := ctx.URLParamFloat64("longitude")
	latitude, latErr := ctx.URLParamFloat64("latitude")
	if lngErr != nil || latErr != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "longitude and latitude are required", ctx)
		return
	}

	radius := ctx.URLParamFloat64Default("radius", services.DefaultSearchRadiusKm)
	if radius <= 0 {
		radius = services.DefaultSearchRadiusKm
	}

	var hosts []models.User
	if err := storage.DB.Where("role = ?", models.RoleHost).Find(&hosts).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	type nearbyHost struct {
		profile    map[string]interface{}
		distanceKm float64
	}

	nearby := make([]nearbyHost, 0, len(hosts))
	for i := range hosts {
		d := services.CalculateDistance(latitude, longitude, hosts[i].Lat, hosts[i].Lng)
		if d <= radius {
			profile := hosts[i].PublicProfile()
			profile["distanceKm"] = d
			nearby = append(nearby, nearbyHost{profile: profile, distanceKm: d})
		}
	}

	sort.Slice(nearby, func(i, j int) bool { return nearby[i].distanceKm < nearby[j].distanceKm })

	response := make([]map[string]interface{}, 0, len(nearby))
	for _, h := range nearby {
		response = append(response, h.profile)
	}

	ctx.JSON(response)
}

func getAndHandleUserExists(user *models.User, email string) (exists bool, err error) {
	userExistsQuery := storage.DB.Where("email = ?", strings.ToLower(email)).Limit(1).Find(&user)

	if userExistsQuery.Error != nil {
		return false, userExistsQuery.Error
	}

	return userExistsQuery.RowsAffected > 0, nil
}

func hashAndSaltPassword(password string) (hashedPassword string, err error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(bytes), nil
}

func returnUser(user models.User, ctx iris.Context) {
	tokenPair, tokenErr := utils.CreateTokenPair(user.ID)
	if tokenErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"ID":            user.ID,
		"name":          user.Name,
		"email":         user.Email,
		"age":           user.Age,
		"contactNumber": user.ContactNumber,
		"role":          user.Role,
		"accessToken":   string(tokenPair.AccessToken),
		"refreshToken":  string(tokenPair.RefreshToken),
	})
}

type RegisterUserInput struct {
	Name          string            `json:"name" validate:"required,max=256"`
	Email         string            `json:"email" validate:"required,max=256,email"`
	Password      string            `json:"password" validate:"required,min=8,max=256"`
	Age           int               `json:"age" validate:"required,min=18,max=120"`
	ContactNumber string            `json:"contactNumber" validate:"required"`
	Role          string            `json:"role" validate:"required,oneof=guest host"`
	BankDetails   *BankDetailsInput `json:"bankDetails"`
	Location      *LocationInput    `json:"location"`
}

type LoginUserInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileInput struct {
	Name          string            `json:"name"`
	ContactNumber string            `json:"contactNumber"`
	BankDetails   *BankDetailsInput `json:"bankDetails"`
	Location      *LocationInput    `json:"location"`
}

type BankDetailsInput struct {
	AccountNumber string `json:"accountNumber"`
	BankName      string `json:"bankName"`
}

type LocationInput struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}
