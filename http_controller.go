package accounts

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// AccountControllerRoutes are the paths the controller mounts, relative to
// the router it is registered on.
type AccountControllerRoutes struct {
	Register string
	Login    string
	Profile  string
}

type AccountController struct {
	Debug  bool
	Logger Logger
	Repo   RepositoryManager
	Auther Authenticator
	Routes *AccountControllerRoutes
}

type AccountControllerOption func(*AccountController) *AccountController

func NewAccountController(opts ...AccountControllerOption) *AccountController {
	c := &AccountController{
		Logger: defLogger{},
		Routes: &AccountControllerRoutes{
			Register: "/register",
			Login:    "/login",
			Profile:  "/profile",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in account controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in account controller...")
	}

	return c
}

func WithRepositoryManager(repo RepositoryManager) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Repo = repo
		return c
	}
}

func WithAuthenticator(auther Authenticator) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Auther = auther
		return c
	}
}

func WithControllerLogger(logger Logger) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Logger = logger
		return c
	}
}

func WithDebug(debug bool) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Debug = debug
		return c
	}
}

// RegisterRoutes mounts the account endpoints. The guard protects the
// profile pair; register and login stay open.
func (a *AccountController) RegisterRoutes(router fiber.Router, guard fiber.Handler) {
	router.Post(a.Routes.Register, a.RegisterPost)
	router.Post(a.Routes.Login, a.LoginPost)
	router.Get(a.Routes.Profile, guard, a.ProfileShow)
	router.Put(a.Routes.Profile, guard, a.ProfileUpdate)
}

// RegisterPayload is the registration body
type RegisterPayload struct {
	Username string `form:"username" json:"username"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r RegisterPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(0, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 100)),
	)
}

func (a *AccountController) RegisterPost(c *fiber.Ctx) error {
	payload := new(RegisterPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("register user parse payload: ", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(Response{
			Success: false,
			Message: "Error parsing body",
			Error:   err.Error(),
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register user validate payload: ", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(Response{
			Success: false,
			Message: "Error validating payload",
			Error:   err.Error(),
		})
	}

	if a.Debug {
		fmt.Println("======= ACCOUNT REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("===============================")
	}

	registerUser := NewRegisterUserHandler(a.Repo)
	user, err := registerUser.Execute(c.Context(), RegisterUserMessage{
		Username: payload.Username,
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		a.Logger.Error("register user error: ", "error", err)
		if IsConflictError(err) {
			return SendError(c, err, "User with this email or username already exists")
		}
		return SendError(c, err, "Error in user registration")
	}

	token, err := a.Auther.TokenService().Generate(identityFromUser(user))
	if err != nil {
		a.Logger.Error("register token error: ", "error", err)
		return SendError(c, err, "Error in user registration")
	}

	return SendUser(c, fiber.StatusCreated, user, token)
}

// LoginPayload is the login body
type LoginPayload struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AccountController) LoginPost(c *fiber.Ctx) error {
	payload := new(LoginPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload: ", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(Response{
			Success: false,
			Message: "Error parsing body",
			Error:   err.Error(),
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("login validate payload: ", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(Response{
			Success: false,
			Message: "Error validating payload",
			Error:   err.Error(),
		})
	}

	token, identity, err := a.Auther.Login(c.Context(), payload.Email, payload.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryAuth {
			// Do not leak whether the email exists or the password failed.
			return SendError(c, ErrMismatchedHashAndPassword, "Invalid credentials")
		}
		a.Logger.Error("login error: ", "error", err)
		return SendError(c, err, "Error in user login")
	}

	user, err := a.Repo.Users().GetByEmail(c.Context(), identity.Email())
	if err != nil {
		a.Logger.Error("login user fetch error: ", "error", err)
		return SendError(c, err, "Error in user login")
	}

	return SendUser(c, fiber.StatusOK, user, token)
}

// ProfileShow returns the account bound to the request identity. The
// account is re-read so a deletion between token issuance and use surfaces
// as 404 rather than stale data.
func (a *AccountController) ProfileShow(c *fiber.Ctx) error {
	current, ok := FromContext(c.UserContext())
	if !ok {
		return SendError(c, ErrNotAuthorized, "Not authorized to access this route")
	}

	user, err := a.Repo.Users().GetByID(c.Context(), current.ID)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return SendError(c, err, "User not found")
		}
		return SendError(c, err, "Error fetching user profile")
	}

	return SendUser(c, fiber.StatusOK, user, "")
}

// ProfileUpdatePayload is the profile mutation body; both fields optional
type ProfileUpdatePayload struct {
	Username string `form:"username" json:"username"`
	Email    string `form:"email" json:"email"`
}

// Validate will run validation rules
func (r ProfileUpdatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Length(0, 100), is.Email),
	)
}

func (a *AccountController) ProfileUpdate(c *fiber.Ctx) error {
	current, ok := FromContext(c.UserContext())
	if !ok {
		return SendError(c, ErrNotAuthorized, "Not authorized to access this route")
	}

	payload := new(ProfileUpdatePayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("profile update parse payload: ", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(Response{
			Success: false,
			Message: "Error parsing body",
			Error:   err.Error(),
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("profile update validate payload: ", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(Response{
			Success: false,
			Message: "Error validating payload",
			Error:   err.Error(),
		})
	}

	if a.Debug {
		fmt.Println("======= PROFILE UPDATE ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=============================")
	}

	updateProfile := NewUpdateProfileHandler(a.Repo)
	user, err := updateProfile.Execute(c.Context(), UpdateProfileMessage{
		UserID:   current.ID,
		Username: payload.Username,
		Email:    payload.Email,
	})
	if err != nil {
		a.Logger.Error("profile update error: ", "error", err)
		if IsConflictError(err) {
			return SendError(c, err, "Email already in use")
		}
		if goerrors.IsNotFound(err) {
			return SendError(c, err, "User not found")
		}
		return SendError(c, err, "Error updating user profile")
	}

	return SendUser(c, fiber.StatusOK, user, "")
}
