package ledger

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// subscriptionManagerABI is the ABI of the on-chain subscription manager:
// the seven events the engine derives state from plus the read/write methods
// the SDK calls. Kept as embedded JSON so the module needs no codegen step.
const subscriptionManagerABI = `[
  {"type":"event","name":"PaymentReceived","inputs":[
    {"name":"payer","type":"address","indexed":true},
    {"name":"merchantId","type":"uint256","indexed":true},
    {"name":"token","type":"address","indexed":false},
    {"name":"amount","type":"uint256","indexed":false},
    {"name":"fee","type":"uint256","indexed":false}]},
  {"type":"event","name":"SubscriptionMinted","inputs":[
    {"name":"subscriber","type":"address","indexed":true},
    {"name":"merchantId","type":"uint256","indexed":true},
    {"name":"tokenId","type":"uint256","indexed":false},
    {"name":"expiresAt","type":"uint256","indexed":false}]},
  {"type":"event","name":"SubscriptionRenewed","inputs":[
    {"name":"subscriber","type":"address","indexed":true},
    {"name":"merchantId","type":"uint256","indexed":true},
    {"name":"tokenId","type":"uint256","indexed":false},
    {"name":"expiresAt","type":"uint256","indexed":false},
    {"name":"renewalCount","type":"uint256","indexed":false}]},
  {"type":"event","name":"SubscriptionExpired","inputs":[
    {"name":"subscriber","type":"address","indexed":true},
    {"name":"merchantId","type":"uint256","indexed":true},
    {"name":"tokenId","type":"uint256","indexed":false}]},
  {"type":"event","name":"SubscriptionBurned","inputs":[
    {"name":"subscriber","type":"address","indexed":true},
    {"name":"merchantId","type":"uint256","indexed":true},
    {"name":"tokenId","type":"uint256","indexed":false}]},
  {"type":"event","name":"MerchantRegistered","inputs":[
    {"name":"merchantId","type":"uint256","indexed":true},
    {"name":"owner","type":"address","indexed":true},
    {"name":"payoutAddress","type":"address","indexed":false},
    {"name":"period","type":"uint256","indexed":false},
    {"name":"gracePeriod","type":"uint256","indexed":false}]},
  {"type":"event","name":"MerchantWithdrawal","inputs":[
    {"name":"merchantId","type":"uint256","indexed":true},
    {"name":"token","type":"address","indexed":false},
    {"name":"amount","type":"uint256","indexed":false},
    {"name":"to","type":"address","indexed":false}]},
  {"type":"function","name":"getMerchantPlan","stateMutability":"view","inputs":[
    {"name":"merchantId","type":"uint256"}],
   "outputs":[
    {"name":"payoutAddress","type":"address"},
    {"name":"owner","type":"address"},
    {"name":"subscriptionPeriod","type":"uint256"},
    {"name":"gracePeriod","type":"uint256"},
    {"name":"isActive","type":"bool"},
    {"name":"totalSubscribers","type":"uint256"}]},
  {"type":"function","name":"getMerchantPrice","stateMutability":"view","inputs":[
    {"name":"merchantId","type":"uint256"},
    {"name":"token","type":"address"}],
   "outputs":[{"name":"price","type":"uint256"}]},
  {"type":"function","name":"merchantExists","stateMutability":"view","inputs":[
    {"name":"merchantId","type":"uint256"}],
   "outputs":[{"name":"exists","type":"bool"}]},
  {"type":"function","name":"subscribe","stateMutability":"payable","inputs":[
    {"name":"merchantId","type":"uint256"},
    {"name":"paymentToken","type":"address"}],
   "outputs":[]},
  {"type":"function","name":"withdraw","stateMutability":"nonpayable","inputs":[
    {"name":"merchantId","type":"uint256"},
    {"name":"token","type":"address"}],
   "outputs":[]}
]`

// erc20ABI covers the three ERC20 methods the payment flow needs.
const erc20ABI = `[
  {"type":"function","name":"allowance","stateMutability":"view","inputs":[
    {"name":"owner","type":"address"},
    {"name":"spender","type":"address"}],
   "outputs":[{"name":"remaining","type":"uint256"}]},
  {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[
    {"name":"owner","type":"address"}],
   "outputs":[{"name":"balance","type":"uint256"}]},
  {"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[
    {"name":"spender","type":"address"},
    {"name":"amount","type":"uint256"}],
   "outputs":[{"name":"ok","type":"bool"}]}
]`

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("invalid embedded ABI: " + err.Error())
	}
	return parsed
}
