package domain

import (
	"errors"
)

var (
	MessageSuccessRegister         = "user registered successfully"
	MessageSuccessLogin            = "login success"
	MessageSuccessGetProfile       = "success get profile"
	MessageSuccessGetUsers         = "success get users"
	MessageSuccessSetPassword      = "password updated successfully"
	MessageSuccessSubscribe        = "subscribed successfully"
	MessageSuccessUnsubscribe      = "unsubscribed successfully"
	MessageSuccessGetSubscriptions = "success get subscriptions"

	MessageFailedRegister         = "failed to register user"
	MessageFailedLogin            = "failed to login"
	MessageFailedGetProfile       = "failed to get profile"
	MessageFailedGetUsers         = "failed to get users"
	MessageFailedSetPassword      = "failed to update password"
	MessageFailedSubscribe        = "failed to subscribe"
	MessageFailedUnsubscribe      = "failed to unsubscribe"
	MessageFailedGetSubscriptions = "failed to get subscriptions"

	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameReserved   = errors.New("username is reserved")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already registered")
	ErrCredentialsInvalid = errors.New("email or password is wrong")
	ErrWrongPassword      = errors.New("current password is not correct")
	ErrSelfFollow         = errors.New("you can not follow yourself")
	ErrAlreadyFollowing   = errors.New("you are already following this author")
	ErrNotFollowing       = errors.New("there is no this author in your followings")
)

type (
	RegisterRequest struct {
		Username  string `json:"username" validate:"required,max=150"`
		Email     string `json:"email" validate:"required,email,max=254"`
		FirstName string `json:"first_name" validate:"required,max=30"`
		LastName  string `json:"last_name" validate:"required,max=150"`
		Password  string `json:"password" validate:"required,min=8,max=150"`
	}

	RegisterResponse struct {
		ID        uint   `json:"id"`
		Username  string `json:"username"`
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}

	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"auth_token"`
	}

	SetPasswordRequest struct {
		NewPassword     string `json:"new_password" validate:"required,min=8,max=150"`
		CurrentPassword string `json:"current_password" validate:"required"`
	}

	UserResponse struct {
		ID           uint   `json:"id"`
		Username     string `json:"username"`
		Email        string `json:"email"`
		FirstName    string `json:"first_name"`
		LastName     string `json:"last_name"`
		IsSubscribed bool   `json:"is_subscribed"`
	}

	SubscriptionResponse struct {
		ID           uint                  `json:"id"`
		Email        string                `json:"email"`
		Username     string                `json:"username"`
		FirstName    string                `json:"first_name"`
		LastName     string                `json:"last_name"`
		IsSubscribed bool                  `json:"is_subscribed"`
		Recipes      []RecipeShortResponse `json:"recipes"`
		RecipesCount int64                 `json:"recipes_count"`
	}
)
